package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aleskucera/simview/internal/config"
	"github.com/aleskucera/simview/internal/persistence/store"
	"github.com/aleskucera/simview/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", "", "http listen address (overrides config)")
		dataDir    = flag.String("data", "", "runtime data directory (overrides config)")
		configPath = flag.String("config", "./configs/server.yaml", "config file path")
		simPath    = flag.String("sim", "", "simulation document to register and serve on startup")
		simName    = flag.String("name", "", "display name for the registered simulation")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[simview] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load config: %v", err)
		}
		cfg = config.Defaults()
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close()

	server := ws.NewServer(logger)

	if strings.TrimSpace(*simPath) != "" {
		doc, err := store.LoadDocument(*simPath)
		if err != nil {
			logger.Fatalf("load simulation: %v", err)
		}
		name := *simName
		if name == "" {
			name = *simPath
		}
		row, err := st.Register(name, doc)
		if err != nil {
			logger.Fatalf("register simulation: %v", err)
		}
		server.SetDocument(doc)
		logger.Printf("serving simulation %s (%q): batches=%d bodies=%d frames=%d duration=%.3fs",
			row.ID, row.Name, row.Batches, row.Bodies, row.Frames, row.Duration)
	} else if rows, err := st.List(); err == nil && len(rows) > 0 {
		// Fall back to the most recently registered simulation.
		doc, err := st.Load(rows[0].ID)
		if err != nil {
			logger.Fatalf("load simulation %s: %v", rows[0].ID, err)
		}
		server.SetDocument(doc)
		logger.Printf("serving latest simulation %s (%q)", rows[0].ID, rows[0].Name)
	} else {
		logger.Printf("no simulation loaded; waiting for an upload")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", server.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/simulations", simulationsHandler(st, server, logger))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)

	ln, actualAddr, err := listenWithFallback(cfg.Addr, 20)
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}
	if actualAddr != cfg.Addr {
		logger.Printf("preferred address %s is not available, using %s", cfg.Addr, actualAddr)
	}

	httpServer := &http.Server{Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Printf("listening on %s", actualAddr)
	if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
}

// simulationsHandler lists stored simulations on GET and registers an
// uploaded {model, states} document on POST, making it the served one.
func simulationsHandler(st *store.Store, server *ws.Server, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			rows, err := st.List()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(rows)
		case http.MethodPost:
			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 512<<20))
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			doc, err := store.DecodeDocument(raw)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			row, err := st.Register(r.URL.Query().Get("name"), doc)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			server.SetDocument(doc)
			logger.Printf("registered simulation %s (%q)", row.ID, row.Name)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(row)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// listenWithFallback tries the preferred address first and then walks up
// through the following ports.
func listenWithFallback(addr string, attempts int) (net.Listener, string, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		ln, err := net.Listen("tcp", addr)
		return ln, addr, err
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		ln, err := net.Listen("tcp", addr)
		return ln, addr, err
	}
	var lastErr error
	for i := 0; i <= attempts; i++ {
		try := net.JoinHostPort(host, fmt.Sprintf("%d", port+i))
		ln, err := net.Listen("tcp", try)
		if err == nil {
			return ln, try, nil
		}
		lastErr = err
	}
	return nil, "", lastErr
}
