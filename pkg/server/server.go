package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	benchxerrors "kubegems.io/benchx/pkg/errors"
	"kubegems.io/benchx/pkg/history"
	"kubegems.io/benchx/pkg/types"
)

const DefaultLimit = 20

type Options struct {
	Listen      string
	HistoryPath string
	CertFile    string
	KeyFile     string
	OIDCIssuer  string
}

func DefaultOptions() *Options {
	return &Options{
		Listen:      ":8080",
		HistoryPath: history.DefaultPath(),
	}
}

// RunLister is the read side of the run history.
type RunLister interface {
	List(ctx context.Context, limit int) ([]types.RunRecord, error)
	Get(ctx context.Context, id string) (*types.RunRecord, error)
}

type Server struct {
	Runs RunLister
}

func Run(ctx context.Context, opts *Options) error {
	log := logr.FromContextOrDiscard(ctx)
	store, err := history.Open(opts.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()
	s := &Server{Runs: store}

	handler := s.Route()
	if opts.OIDCIssuer != "" {
		verifier, err := NewOIDCVerifier(ctx, opts.OIDCIssuer)
		if err != nil {
			return err
		}
		handler = NewAuthFilter(verifier, handler)
	}

	server := http.Server{
		Addr:    opts.Listen,
		Handler: handlers.CombinedLoggingHandler(os.Stdout, handler),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()
	if opts.CertFile != "" && opts.KeyFile != "" {
		log.Info("history server listening", "https", opts.Listen)
		err = server.ListenAndServeTLS(opts.CertFile, opts.KeyFile)
	} else {
		log.Info("history server listening", "http", opts.Listen)
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Route() http.Handler {
	mux := mux.NewRouter()
	mux = mux.StrictSlash(true)
	mux.Methods("GET").Path("/healthz").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Methods("GET").Path("/runs").HandlerFunc(s.ListRuns)
	mux.Methods("GET").Path("/runs/{id}").HandlerFunc(s.GetRun)
	return mux
}

func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := DefaultLimit
	if val := r.URL.Query().Get("limit"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			ResponseError(w, benchxerrors.NewParameterInvalidError("invalid limit: "+val))
			return
		}
		limit = n
	}
	records, err := s.Runs.List(r.Context(), limit)
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, records)
}

func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	record, err := s.Runs.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, record)
}

func ResponseError(w http.ResponseWriter, err error) {
	info := benchxerrors.ErrorInfo{}
	if !errors.As(err, &info) {
		info = benchxerrors.NewInternalError(err)
	}
	if info.HttpStatus == 0 {
		info.HttpStatus = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(info.HttpStatus)
	json.NewEncoder(w).Encode(info)
}

func ResponseOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
