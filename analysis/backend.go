package analysis

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/tebeka/atexit"
)

// An ObservationBackend persists observations outside process memory.
type ObservationBackend interface {
	ObservationLogger
	Flush()
}

// CSVBackend writes observations to a CSV file.
type CSVBackend struct {
	file      *os.File
	csvWriter *csv.Writer
}

// NewCSVBackend creates a CSVBackend that writes to filename + ".csv",
// replacing any existing file.
func NewCSVBackend(filename string) *CSVBackend {
	b := &CSVBackend{}

	var err error
	b.file, err = os.OpenFile(filename+".csv",
		os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		panic(err)
	}

	b.csvWriter = csv.NewWriter(b.file)

	header := []string{"Name", "Time", "Replication", "Value"}
	err = b.csvWriter.Write(header)
	if err != nil {
		panic(err)
	}

	atexit.Register(b.Flush)

	return b
}

// Record appends one observation to the CSV file.
func (b *CSVBackend) Record(obs Observation) {
	err := b.csvWriter.Write([]string{
		obs.Name,
		fmt.Sprintf("%.10f", obs.Time),
		strconv.Itoa(obs.Replication),
		fmt.Sprintf("%.10f", obs.Value),
	})
	if err != nil {
		panic(err)
	}
}

// Flush writes buffered rows to the file.
func (b *CSVBackend) Flush() {
	b.csvWriter.Flush()
}

// SQLiteBackend writes observations to a SQLite database in batches.
type SQLiteBackend struct {
	*sql.DB
	statement *sql.Stmt

	batchSize int
	pending   []Observation
}

// NewSQLiteBackend creates a SQLiteBackend that writes to filename +
// ".sqlite3", replacing any existing database.
func NewSQLiteBackend(filename string) *SQLiteBackend {
	b := &SQLiteBackend{
		batchSize: 50000,
	}

	b.createDatabase(filename + ".sqlite3")
	b.prepareStatement()

	atexit.Register(func() {
		b.Flush()
		err := b.Close()
		if err != nil {
			panic(err)
		}
	})

	return b
}

// Record queues one observation. A full batch is flushed at once.
func (b *SQLiteBackend) Record(obs Observation) {
	b.pending = append(b.pending, obs)
	if len(b.pending) >= b.batchSize {
		b.Flush()
	}
}

// Flush writes all queued observations in one transaction.
func (b *SQLiteBackend) Flush() {
	if len(b.pending) == 0 {
		return
	}

	tx, err := b.Begin()
	if err != nil {
		panic(err)
	}

	defer func() {
		innerErr := tx.Commit()
		if innerErr != nil {
			panic(innerErr)
		}
	}()

	for _, obs := range b.pending {
		_, err = tx.Stmt(b.statement).Exec(
			obs.Name,
			float64(obs.Time),
			obs.Replication,
			obs.Value,
		)
		if err != nil {
			panic(err)
		}
	}

	b.pending = b.pending[:0]
}

func (b *SQLiteBackend) createDatabase(filename string) {
	var err error

	_, err = os.Stat(filename)
	if err == nil {
		err = os.Remove(filename)
		if err != nil {
			panic(err)
		}
	}

	b.DB, err = sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	b.createTable()
}

func (b *SQLiteBackend) createTable() {
	sqlStmt := `
	create table observations (
		id integer not null primary key,
		name text,
		time real,
		replication integer,
		value real
	);
	`

	_, err := b.Exec(sqlStmt)
	if err != nil {
		panic(err)
	}
}

func (b *SQLiteBackend) prepareStatement() {
	var err error

	sqlStmt := `
	insert into observations(name, time, replication, value)
	values(?, ?, ?, ?)
	`

	b.statement, err = b.Prepare(sqlStmt)
	if err != nil {
		panic(err)
	}
}
