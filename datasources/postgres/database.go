package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx"
	"github.com/rs/zerolog"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/execution"
)

type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must be set")
	}
	if c.Database == "" {
		return fmt.Errorf("database must be set")
	}
	return nil
}

type zerologLogger struct {
	logger zerolog.Logger
}

func (l *zerologLogger) Log(level pgx.LogLevel, msg string, data map[string]interface{}) {
	var event *zerolog.Event
	switch level {
	case pgx.LogLevelError:
		event = l.logger.Error()
	case pgx.LogLevelWarn:
		event = l.logger.Warn()
	case pgx.LogLevelInfo:
		event = l.logger.Info()
	default:
		event = l.logger.Debug()
	}
	event.Fields(data).Msg(msg)
}

func connect(config *Config, logger zerolog.Logger) (*pgx.Conn, error) {
	port := config.Port
	if port == 0 {
		port = 5432
	}
	db, err := pgx.Connect(pgx.ConnConfig{
		Host:      config.Host,
		Port:      uint16(port),
		User:      config.User,
		Database:  config.Database,
		Password:  config.Password,
		TLSConfig: nil,
		Logger:    &zerologLogger{logger: logger},
		LogLevel:  pgx.LogLevelWarn,
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't open database: %w", err)
	}
	return db, nil
}

type column struct {
	field execution.Field
	// cast is appended to the column in the select list, so that values decode into types we support.
	cast string
}

// Table is a postgres table, described through information_schema.
type Table struct {
	config  *Config
	logger  zerolog.Logger
	table   string
	columns []column
	schema  execution.Schema
}

func Creator(ctx context.Context, config *Config, table string, logger zerolog.Logger) (*Table, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid postgres config: %w", err)
	}
	db, err := connect(config, logger)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryEx(ctx, "SELECT column_name, data_type FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position", nil, table)
	if err != nil {
		return nil, fmt.Errorf("couldn't describe table: %w", err)
	}
	defer rows.Close()

	var columns []column
	var fields []execution.Field
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, fmt.Errorf("couldn't scan table description: %w", err)
		}
		t, cast := getType(dataType)
		if cast == "" && t.TypeID == chunkflow.TypeIDNull {
			logger.Warn().Str("table", table).Str("column", name).Str("type", dataType).Msg("unsupported postgres type, reading as text")
			t, cast = chunkflow.String, "::text"
		}
		columns = append(columns, column{
			field: execution.Field{Name: name, Type: t},
			cast:  cast,
		})
		fields = append(fields, execution.Field{Name: name, Type: t})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("couldn't describe table: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	return &Table{
		config:  config,
		logger:  logger,
		table:   table,
		columns: columns,
		schema:  execution.Schema{Fields: fields},
	}, nil
}

func getType(dataType string) (chunkflow.Type, string) {
	switch dataType {
	case "integer", "smallint", "bigint":
		return chunkflow.Int, ""
	case "text", "character", "character varying":
		return chunkflow.String, ""
	case "real", "double precision":
		return chunkflow.Float, ""
	case "numeric":
		return chunkflow.Float, "::float8"
	case "boolean":
		return chunkflow.Boolean, ""
	case "date", "timestamp without time zone", "timestamp with time zone":
		return chunkflow.Time, ""
	case "interval":
		return chunkflow.Duration, ""
	}
	return chunkflow.Null, ""
}

func (t *Table) Schema() execution.Schema {
	return t.schema
}

// selectQuery builds the query reading the given columns, all of them if none are given.
func (t *Table) selectQuery(columns []string) (string, []execution.Field, error) {
	used := t.columns
	if len(columns) > 0 {
		used = make([]column, len(columns))
		for i, name := range columns {
			found := false
			for _, c := range t.columns {
				if c.field.Name == name {
					used[i] = c
					found = true
					break
				}
			}
			if !found {
				return "", nil, fmt.Errorf("couldn't find column %s in %s: %w", name, t.table, execution.ErrColumnNotFound)
			}
		}
	}

	query := "SELECT "
	fields := make([]execution.Field, len(used))
	for i, c := range used {
		if i > 0 {
			query += ", "
		}
		query += pgx.Identifier{c.field.Name}.Sanitize() + c.cast
		fields[i] = c.field
	}
	query += " FROM " + pgx.Identifier{t.table}.Sanitize()
	return query, fields, nil
}

// Open starts the query, which is then consumed batch by batch.
func (t *Table) Open(ctx context.Context, columns []string) (*DatasourceExecuting, error) {
	query, fields, err := t.selectQuery(columns)
	if err != nil {
		return nil, err
	}

	db, err := connect(t.config, t.logger)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to database: %w", err)
	}
	rows, err := db.QueryEx(ctx, query, nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("couldn't execute database query: %w", err)
	}

	return &DatasourceExecuting{
		db:     db,
		rows:   rows,
		schema: execution.Schema{Fields: fields},
	}, nil
}
