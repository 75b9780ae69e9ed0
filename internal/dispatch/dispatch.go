package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/RichardKnop/ajxgate/internal/command"
	"github.com/RichardKnop/ajxgate/internal/engine"
	"github.com/RichardKnop/ajxgate/internal/session"
)

var errInvalidAction = errors.New("invalid command action")

type Parser interface {
	Parse(context.Context, string) (command.Command, error)
}

// Response is the outcome of one command. Exactly one of Payload or Err is
// meaningful.
type Response struct {
	Payload any
	Err     error
}

func (r Response) IsError() bool {
	return r.Err != nil
}

// Body is the JSON-serializable value sent back to the client.
func (r Response) Body() any {
	if r.Err != nil {
		return map[string]string{"error": r.Err.Error()}
	}
	return r.Payload
}

type Dispatcher struct {
	engine engine.Engine
	parser Parser
	logger *zap.Logger
}

func New(anEngine engine.Engine, aParser Parser, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		engine: anEngine,
		parser: aParser,
		logger: logger,
	}
}

// Run parses raw command text and executes it against the session. Failures
// of any kind, panics included, come back as an error Response.
func (d *Dispatcher) Run(ctx context.Context, aSession *session.Session, raw string) (aResponse Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("recovered from panic while running command", zap.String("command", raw), zap.Any("panic", r))
			aResponse = Response{Err: fmt.Errorf("internal error while running command: %v", r)}
		}
	}()

	aCommand, err := d.parser.Parse(ctx, raw)
	if err != nil {
		return Response{Err: err}
	}

	payload, err := d.Execute(ctx, aSession, aCommand)
	if err != nil {
		d.logger.Debug("command failed", zap.Stringer("action", aCommand), zap.Error(err))
		return Response{Err: err}
	}
	return Response{Payload: payload}
}

// Execute makes exactly one call to the storage engine for a parsed command.
func (d *Dispatcher) Execute(ctx context.Context, aSession *session.Session, aCommand command.Command) (any, error) {
	if err := checkSupported(aCommand); err != nil {
		return nil, err
	}

	db, ok := aSession.Current()
	if aCommand.RequiresSession() && !ok {
		return nil, command.ErrNoActiveSession
	}

	d.logger.Debug("executing command", zap.Stringer("action", aCommand), zap.String("table", aCommand.Table))

	payload, err := d.execute(ctx, aSession, db, aCommand)
	if errors.Is(err, errInvalidAction) {
		return nil, err
	}
	if err != nil {
		return nil, &command.EngineError{Op: aCommand.String(), Err: err}
	}
	return payload, nil
}

func (d *Dispatcher) execute(ctx context.Context, aSession *session.Session, db engine.Database, aCommand command.Command) (any, error) {
	switch aCommand.Action {
	case command.Init:
		return d.init(ctx, aSession, aCommand.Name)
	case command.Create:
		if aCommand.Element == command.Database {
			return d.createDatabase(ctx, aCommand.Name)
		}
		return db.CreateTable(ctx, engine.CreateTableRequest{
			TableName:  aCommand.Table,
			PrimaryKey: aCommand.PrimaryKey,
			Columns:    aCommand.Columns,
		})
	case command.Insert:
		return db.Insert(ctx, engine.InsertRequest{
			TableName: aCommand.Table,
			Columns:   aCommand.Columns,
			Values:    aCommand.Values,
		})
	case command.Find:
		if aCommand.Condition == nil {
			return db.ShowTable(ctx, engine.ShowTableRequest{
				TableName: aCommand.Table,
				Distinct:  aCommand.Modifiers.Distinct,
				Columns:   aCommand.Columns,
				Offset:    aCommand.Modifiers.Offset,
				Limit:     aCommand.Modifiers.Limit,
			})
		}
		return db.Find(ctx, engine.FindRequest{
			TableName:      aCommand.Table,
			Distinct:       aCommand.Modifiers.Distinct,
			Columns:        aCommand.Columns,
			Condition:      aCommand.Condition.Field,
			Operator:       string(aCommand.Condition.Operator),
			ConditionValue: aCommand.Condition.Value,
			Offset:         aCommand.Modifiers.Offset,
			Limit:          aCommand.Modifiers.Limit,
		})
	case command.Describe:
		if aCommand.Element == command.Database {
			return d.engine.DescribeDatabase(ctx, db, aCommand.Name)
		}
		return db.DescribeTable(ctx, aCommand.Table)
	case command.Drop:
		if aCommand.Element == command.Database {
			// The session keeps pointing at a dropped database until the
			// next INIT.
			return d.engine.DropDatabase(ctx, aCommand.Name)
		}
		return db.DropTable(ctx, aCommand.Table)
	case command.Update:
		return db.Update(ctx, engine.UpdateRequest{
			TableName:      aCommand.Table,
			Set:            aCommand.Set,
			SetValues:      aCommand.SetValues,
			Condition:      aCommand.Condition.Field,
			Operator:       string(aCommand.Condition.Operator),
			ConditionValue: aCommand.Condition.Value,
		})
	case command.Delete:
		return db.Delete(ctx, engine.DeleteRequest{
			TableName:      aCommand.Table,
			Condition:      aCommand.Condition.Field,
			Operator:       string(aCommand.Condition.Operator),
			ConditionValue: aCommand.Condition.Value,
		})
	default:
		return nil, fmt.Errorf("%w %q", errInvalidAction, aCommand.Action)
	}
}

func (d *Dispatcher) init(ctx context.Context, aSession *session.Session, name string) (any, error) {
	db, err := d.engine.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if previous := aSession.Swap(db); previous != nil {
		if err := previous.Close(); err != nil {
			d.logger.Warn("error closing previous database", zap.String("database", previous.Name()), zap.Error(err))
		}
	}
	return fmt.Sprintf("Using database: %s", name), nil
}

func (d *Dispatcher) createDatabase(ctx context.Context, name string) (any, error) {
	db, err := d.engine.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := db.Close(); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Database created: %s", name), nil
}

func checkSupported(aCommand command.Command) error {
	if aCommand.Action == command.Save {
		return &command.UnsupportedError{Feature: "SAVE"}
	}
	if aCommand.Condition != nil && !aCommand.Condition.Operator.Supported() {
		return &command.UnsupportedError{Feature: fmt.Sprintf("operator %s", aCommand.Condition.Operator)}
	}
	if aCommand.OrderBy != nil {
		return &command.UnsupportedError{Feature: "ORDER BY"}
	}
	return nil
}
