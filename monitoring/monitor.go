// Package monitoring turns a running simulation into a small web server, so
// the state of its processes and resources can be watched and controlled
// from a browser while the run is in progress.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/pythonhealthdatascience/intro-open-sim/analysis"
	"github.com/pythonhealthdatascience/intro-open-sim/monitoring/web"
	"github.com/pythonhealthdatascience/intro-open-sim/sim"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor can turn a simulation into a server and allows external monitoring
// and controlling of the simulation. Handlers pause the engine while they
// inspect model state, so every response is a consistent snapshot.
type Monitor struct {
	engine      sim.Engine
	env         *sim.Environment
	portNumber  int
	openBrowser bool

	analyzers map[string]*analysis.ResourceAnalyzer

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		analyzers: make(map[string]*analysis.ResourceAnalyzer),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowserOpen makes StartServer open the dashboard in the default
// browser once the server is listening.
func (m *Monitor) WithBrowserOpen() *Monitor {
	m.openBrowser = true

	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.engine = e
}

// RegisterEnvironment registers the environment to be monitored, exposing
// its processes, resources, and failures. The environment's engine is
// registered along with it.
func (m *Monitor) RegisterEnvironment(env *sim.Environment) {
	m.env = env
	m.engine = env.Engine()
}

// RegisterResourceAnalyzer exposes the analyzer's live utilization under
// the name of the resource it observes.
func (m *Monitor) RegisterResourceAnalyzer(ra *analysis.ResourceAnalyzer) {
	m.analyzers[ra.Resource().Name()] = ra
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars)-1)
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// StartServer starts the monitor as a web server, on the configured port or
// a random free one.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	fs := web.GetAssets()
	fServer := http.FileServer(fs)
	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/run", m.run)
	r.HandleFunc("/api/processes", m.listProcesses)
	r.HandleFunc("/api/process/{name}", m.listProcessDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/resources", m.listResources)
	r.HandleFunc("/api/resource/{name}", m.listResourceDetails)
	r.HandleFunc("/api/utilization/{name}", m.resourceUtilization)
	r.HandleFunc("/api/failures", m.listFailures)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/host", m.hostStats)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(fServer)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open browser: %s\n", err)
		}
	}

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.engine.CurrentTime()
	fmt.Fprintf(w, "{\"now\":%.10f}", now)
}

func (m *Monitor) run(_ http.ResponseWriter, _ *http.Request) {
	go func() {
		err := m.engine.Run()
		if err != nil {
			panic(err)
		}
	}()
}

type processRsp struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	State    string `json:"state"`
	Awaiting string `json:"awaiting,omitempty"`
}

func (m *Monitor) listProcesses(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	defer m.engine.Continue()

	processes := m.env.Processes()
	rsp := make([]processRsp, 0, len(processes))
	for _, p := range processes {
		rsp = append(rsp, processRsp{
			ID:       p.ID(),
			Name:     p.Name(),
			State:    string(p.State()),
			Awaiting: string(p.Awaiting()),
		})
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listProcessDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	p := m.findProcessOr404(w, name)
	if p == nil {
		return
	}

	m.engine.Pause()
	defer m.engine.Continue()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(p)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	Name  string `json:"name,omitempty"`
	Field string `json:"field,omitempty"`
}

// listFieldValue serializes one field of a process or a resource, identified
// by name and a dot-separated field path.
func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		dieOnErr(err)
	}

	root := m.findProcessOrResource(req.Name)
	if root == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Process or resource not found"))
		dieOnErr(err)
		return
	}

	m.engine.Pause()
	defer m.engine.Continue()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(root)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.Field, "."))
	dieOnErr(err)

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) findProcessOrResource(name string) any {
	for _, p := range m.env.Processes() {
		if p.Name() == name {
			return p
		}
	}

	for _, res := range m.env.Resources() {
		if res.Name() == name {
			return res
		}
	}

	return nil
}

func (m *Monitor) listResources(w http.ResponseWriter, r *http.Request) {
	sortMethod, limit, offset, err := m.resourcesParseParams(r)
	if err != nil {
		w.WriteHeader(400)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	m.engine.Pause()
	defer m.engine.Continue()

	sortedResources := m.sortAndSelectResources(sortMethod, limit, offset)

	fmt.Fprint(w, "[")
	for i, res := range sortedResources {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w,
			"{\"resource\":\"%s\",\"capacity\":%d,"+
				"\"granted\":%d,\"pending\":%d}",
			res.Name(), res.Capacity(), res.Granted(), res.Pending())
	}

	fmt.Fprint(w, "]")
}

func (*Monitor) resourcesParseParams(
	r *http.Request,
) (sort string, limit, offset int, err error) {
	sortMethod := r.URL.Query().Get("sort")
	if sortMethod == "" {
		sortMethod = "percent"
	}
	if sortMethod != "pending" && sortMethod != "percent" {
		errStr := fmt.Sprintf(
			"Invalid sort method: %s. "+
				"Allowed values are `pending` and `percent`",
			sortMethod)
		return "", 0, 0, errors.New(errStr)
	}

	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		limitStr = "0"
	}
	limitNumber, err := strconv.Atoi(limitStr)
	if err != nil {
		return sortMethod, 0, 0, err
	}

	offsetStr := r.URL.Query().Get("offset")
	if offsetStr == "" {
		offsetStr = "0"
	}
	offsetNumber, err := strconv.Atoi(offsetStr)
	if err != nil {
		return sortMethod, limitNumber, 0, err
	}

	return sortMethod, limitNumber, offsetNumber, nil
}

func resourcePercent(r *sim.Resource) float64 {
	return float64(r.Granted()) / float64(r.Capacity())
}

func (m *Monitor) sortAndSelectResources(
	sortMethod string,
	limit, offset int,
) []*sim.Resource {
	sortedResources := make([]*sim.Resource, len(m.env.Resources()))
	copy(sortedResources, m.env.Resources())

	if sortMethod == "pending" {
		sort.SliceStable(sortedResources, func(i, j int) bool {
			pendingI := sortedResources[i].Pending()
			pendingJ := sortedResources[j].Pending()

			if pendingI != pendingJ {
				return pendingI > pendingJ
			}

			return resourcePercent(sortedResources[i]) >
				resourcePercent(sortedResources[j])
		})
	} else {
		sort.SliceStable(sortedResources, func(i, j int) bool {
			percentI := resourcePercent(sortedResources[i])
			percentJ := resourcePercent(sortedResources[j])

			if percentI != percentJ {
				return percentI > percentJ
			}

			return sortedResources[i].Pending() >
				sortedResources[j].Pending()
		})
	}

	if offset > len(sortedResources) {
		offset = len(sortedResources)
	}

	end := len(sortedResources)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return sortedResources[offset:end]
}

func (m *Monitor) listResourceDetails(
	w http.ResponseWriter,
	r *http.Request,
) {
	name := mux.Vars(r)["name"]

	res := m.findResourceOr404(w, name)
	if res == nil {
		return
	}

	m.engine.Pause()
	defer m.engine.Continue()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(res)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) resourceUtilization(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	ra, ok := m.analyzers[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("No analyzer for resource"))
		dieOnErr(err)
		return
	}

	m.engine.Pause()
	defer m.engine.Continue()

	fmt.Fprintf(w, "{\"resource\":%q,\"utilization\":%.10f}",
		name, ra.Utilization())
}

type failureRsp struct {
	ProcessID string  `json:"process_id"`
	Process   string  `json:"process"`
	Time      float64 `json:"time"`
	Value     string  `json:"value"`
}

func (m *Monitor) listFailures(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	defer m.engine.Continue()

	failures := m.env.Failures()
	rsp := make([]failureRsp, 0, len(failures))
	for _, f := range failures {
		rsp = append(rsp, failureRsp{
			ProcessID: f.ProcessID,
			Process:   f.ProcessName,
			Time:      float64(f.Time),
			Value:     fmt.Sprintf("%v", f.Value),
		})
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) findProcessOr404(
	w http.ResponseWriter,
	name string,
) *sim.Process {
	for _, p := range m.env.Processes() {
		if p.Name() == name {
			return p
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Process not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) findResourceOr404(
	w http.ResponseWriter,
	name string,
) *sim.Resource {
	for _, res := range m.env.Resources() {
		if res.Name() == name {
			return res
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Resource not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bytes, err := json.Marshal(m.progressBars)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type hostRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) hostStats(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := hostRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
