// Package agent provides an HTTP endpoint for a long running command:
// pprof plus whatever extra handlers the command registers.
package agent

import (
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Agent struct {
	ln  net.Listener
	srv *http.Server
}

// Start serves pprof under /debug/pprof/ and every extra GET handler on addr.
// Use port 0 to pick a free port, see Addr.
func Start(addr string, extra map[string]http.Handler) (*Agent, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	r.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	for path, h := range extra {
		r.Handle(path, h).Methods("GET")
	}

	a := &Agent{
		ln:  ln,
		srv: &http.Server{Handler: r},
	}
	go func() {
		if err := a.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Errorf("diagnostics agent: %v", err)
		}
	}()

	log.Infof("diagnostics agent ready on %s", a.Addr())
	return a, nil
}

func (a *Agent) Addr() string {
	return a.ln.Addr().String()
}

func (a *Agent) Stop() {
	a.srv.Close()
}
