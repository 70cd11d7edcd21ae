package logsvc

import (
	"log"
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/jukulab/shiken/core"
	"github.com/jukulab/shiken/core/user"
)

// RollbarLogger reports to Rollbar and mirrors everything to a standard
// logger so records survive a Rollbar outage.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.emit(rollbar.Debug, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.emit(rollbar.Info, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.emit(rollbar.Warning, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.emit(rollbar.Error, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.emit(rollbar.Critical, msg, args)
	l.std.Fatal(msg)
}

// emit sends msg and args to one rollbar level func and to the std mirror.
// A user.User among the args becomes the Rollbar "person" instead of a
// payload item; only the first one counts.
func (l RollbarLogger) emit(level func(...interface{}), msg string, args []interface{}) {
	var person *user.User
	payload := make([]interface{}, 0, len(args)+1)
	payload = append(payload, msg)
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			if person == nil {
				usr := usr
				person = &usr
			}
			continue
		}
		payload = append(payload, arg)
	}
	if person != nil {
		rollbar.SetPerson(strconv.Itoa(person.ID), person.Username, person.Email)
	} else {
		rollbar.ClearPerson()
	}
	level(payload...)

	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}
