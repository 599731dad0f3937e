// Package sqlitelog is the built-in Kestrel::SQLiteLog plugin. It intercepts
// the SQLiteLog::* script functions and persists log records to a SQLite
// database.
package sqlitelog

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kestrelhq/kestrel/internal/logging"
	"github.com/kestrelhq/kestrel/internal/plugin"
	"github.com/kestrelhq/kestrel/internal/val"
)

// Script functions the plugin provides.
const (
	fnWrite = "SQLiteLog::write"
	fnCount = "SQLiteLog::count"
)

const schema = `
CREATE TABLE IF NOT EXISTS log (
	ts      REAL NOT NULL,
	stream  TEXT NOT NULL,
	message TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS log_stream ON log (stream);
`

// Plugin is the SQLite log writer. It contributes a writer component, claims
// the SQLiteLog::* functions at the call-interception hook, and stamps rows
// with the current network time.
type Plugin struct {
	plugin.Base

	path string
	log  *logging.Logger

	db      *sql.DB
	insert  *sql.Stmt
	netTime float64
}

// New creates the plugin writing to the database at path. Use ":memory:" for
// an in-memory log.
func New(path string, log *logging.Logger) *Plugin {
	if log == nil {
		log = logging.Nop()
	}
	p := &Plugin{path: path, log: log.Sub("sqlitelog")}
	p.EnableHook(plugin.HookCallFunction, 0)
	p.EnableHook(plugin.HookUpdateNetworkTime, 0)
	return p
}

// Configure identifies the plugin.
func (p *Plugin) Configure() plugin.Configuration {
	cfg := plugin.NewConfiguration("Kestrel::SQLiteLog", "Log writer backed by SQLite")
	cfg.Version = plugin.VersionNumber{Major: 1, Minor: 0}
	return cfg
}

// InitPreScript announces the component and the script functions.
func (p *Plugin) InitPreScript() {
	p.Base.InitPreScript()
	p.AddComponent(writerComponent{plugin.NewBaseComponent(plugin.ComponentWriter, "SQLiteLog")})
	p.AddBuiltinItem(fnWrite, plugin.ItemFunction)
	p.AddBuiltinItem(fnCount, plugin.ItemFunction)
}

// InitPostScript opens the database.
func (p *Plugin) InitPostScript() {
	p.Base.InitPostScript()

	db, err := sql.Open("sqlite", p.path)
	if err != nil {
		panic(fmt.Sprintf("sqlitelog: opening %s: %v", p.path, err))
	}
	if _, err := db.Exec(schema); err != nil {
		panic(fmt.Sprintf("sqlitelog: creating schema: %v", err))
	}
	insert, err := db.Prepare("INSERT INTO log (ts, stream, message) VALUES (?, ?, ?)")
	if err != nil {
		panic(fmt.Sprintf("sqlitelog: preparing insert: %v", err))
	}
	p.db = db
	p.insert = insert
	p.log.Debug().Str("path", p.path).Msg("database opened")
}

// Done closes the database.
func (p *Plugin) Done() {
	p.Base.Done()
	if p.insert != nil {
		p.insert.Close()
		p.insert = nil
	}
	if p.db != nil {
		p.db.Close()
		p.db = nil
	}
}

// HookUpdateNetworkTime tracks the clock used to stamp rows.
func (p *Plugin) HookUpdateNetworkTime(t float64) {
	p.netTime = t
}

// HookCallFunction claims the SQLiteLog::* functions. Other calls fall
// through to the interpreter.
func (p *Plugin) HookCallFunction(fn *val.Func, frame *val.Frame, args val.ValList) (bool, *val.Val) {
	switch fn.Name() {
	case fnWrite:
		return true, p.write(args)
	case fnCount:
		return true, p.count(args)
	default:
		return p.Base.HookCallFunction(fn, frame, args)
	}
}

// write inserts a record. Returns true on success.
func (p *Plugin) write(args val.ValList) *val.Val {
	if p.db == nil || len(args) != 2 ||
		args[0].Kind() != val.KindString || args[1].Kind() != val.KindString {
		p.log.Warn().Msg("bad write call")
		return val.Bool(false)
	}
	if _, err := p.insert.Exec(p.netTime, args[0].AsString(), args[1].AsString()); err != nil {
		p.log.Error().Err(err).Msg("insert failed")
		return val.Bool(false)
	}
	return val.Bool(true)
}

// count returns the number of records in a stream, or in total when called
// without arguments.
func (p *Plugin) count(args val.ValList) *val.Val {
	if p.db == nil {
		return val.Int(0)
	}

	var (
		row *sql.Row
		n   int64
	)
	if len(args) == 1 && args[0].Kind() == val.KindString {
		row = p.db.QueryRow("SELECT COUNT(*) FROM log WHERE stream = ?", args[0].AsString())
	} else {
		row = p.db.QueryRow("SELECT COUNT(*) FROM log")
	}
	if err := row.Scan(&n); err != nil {
		p.log.Error().Err(err).Msg("count failed")
		return val.Int(0)
	}
	return val.Int(n)
}

// writerComponent is the log writer capability the plugin contributes.
type writerComponent struct {
	plugin.BaseComponent
}
