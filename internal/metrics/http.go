package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/potman/internal/logging"
)

// Server exposes a Prometheus gatherer on /metrics.
type Server struct {
	srv  *http.Server
	ln   net.Listener
	log  logging.Logger
	once sync.Once
}

// StartServer listens on addr and serves in the background until Shutdown
// or until ctx is cancelled. Bind errors are returned immediately.
func StartServer(ctx context.Context, addr string, g prometheus.Gatherer, log logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.Nop{}
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	s := &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
		log: log,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()
	log.Infof("serving metrics on http://%s/metrics", ln.Addr())
	return s, nil
}

func (s *Server) Addr() string { return s.ln.Addr().String() }

func (s *Server) Shutdown() {
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(ctx); err != nil {
			s.log.Warnf("metrics server shutdown: %v", err)
		}
	})
}
