package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aquilax/eightd/database"
	"github.com/aquilax/eightd/database/cached"
	"github.com/aquilax/eightd/database/memory"
	"github.com/aquilax/eightd/database/postgres"
	"github.com/aquilax/eightd/database/sqlite"
	"github.com/aquilax/eightd/events"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-Id"

type EightD struct {
	config *Config
	log    zerolog.Logger
	db     database.Database
	events events.Publisher
	m      *Model
	tp     *TransPool
	sg     *SpamGuard
}

type appHandler func(http.ResponseWriter, *http.Request) error

func NewEightD() *EightD {
	return &EightD{
		config: NewConfig(),
		log:    zerolog.Nop(),
	}
}

// Run parses args and executes the selected command.
func (l *EightD) Run(ctx context.Context, args []string) error {
	return l.command().Run(ctx, args)
}

func openDatabase(c *Config) (database.Database, error) {
	var db database.Database
	driver := c.Database
	switch c.Database {
	case databaseSQLite:
		db, driver = sqlite.New(), sqlite.DriverName
	case databasePostgres:
		db, driver = postgres.New(), postgres.DriverName
	case databaseMemory:
		db = memory.New()
	default:
		return nil, fmt.Errorf("unknown database %q", c.Database)
	}
	if err := db.Open(driver, c.Dsn); err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Database, err)
	}
	if c.Cache {
		db = cached.New(db)
	}
	return db, nil
}

// open wires the application from the loaded config.
func (l *EightD) open(ctx context.Context) error {
	l.log = NewLogger(os.Stderr, l.config.LogLevel)
	db, err := openDatabase(l.config)
	if err != nil {
		return err
	}
	if l.config.Migrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return err
		}
	}
	var pub events.Publisher = events.Nop{}
	if l.config.AMQPURL != "" {
		if pub, err = events.NewRabbit(l.config.AMQPURL, l.config.AMQPExchange); err != nil {
			db.Close()
			return err
		}
	}
	l.setup(db, pub)
	return nil
}

func (l *EightD) setup(db database.Database, pub events.Publisher) {
	l.db = db
	l.events = pub
	l.m = NewModel(db, pub, l.log)
	l.tp = NewTransPool(l.config.Translations, l.config.Language)
	l.sg = NewSpamGuard(l.config.PostBlockExpire)
}

func (l *EightD) Close() error {
	var errs []error
	if l.events != nil {
		errs = append(errs, l.events.Close())
	}
	if l.db != nil {
		errs = append(errs, l.db.Close())
	}
	return errors.Join(errs...)
}

// Handler returns the routes wrapped in the request middleware.
func (l *EightD) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/8d").Subrouter()
	api.HandleFunc("/health", appHandler(l.healthHandler).ServeHTTP).Methods("GET")
	api.HandleFunc("/me", appHandler(l.meHandler).ServeHTTP).Methods("GET")
	api.HandleFunc("/crew", appHandler(l.crewHandler).ServeHTTP).Methods("GET")
	api.HandleFunc("/users/{userID:[0-9]+}", appHandler(l.userHandler).ServeHTTP).Methods("GET")
	api.HandleFunc("/problems", appHandler(l.problemsHandler).ServeHTTP).Methods("GET")
	api.HandleFunc("/problems/{problemID:[0-9]+}", appHandler(l.problemHandler).ServeHTTP).Methods("GET")
	api.HandleFunc("/problems/{problemID:[0-9]+}/tree", appHandler(l.treeHandler).ServeHTTP).Methods("GET")
	api.HandleFunc("/problems/{problemID:[0-9]+}/solutions", appHandler(l.solutionsHandler).ServeHTTP).Methods("GET")
	api.HandleFunc("/rootcauses/{nodeID:[0-9]+}", appHandler(l.nodeHandler).ServeHTTP).Methods("GET")
	api.HandleFunc("/rootcauses/{nodeID:[0-9]+}/toggle", appHandler(l.toggleHandler).ServeHTTP).Methods("PATCH")
	api.HandleFunc("/solutions/{solutionID:[0-9]+}", appHandler(l.solutionHandler).ServeHTTP).Methods("GET")
	api.HandleFunc("/feed.xml", appHandler(l.feedHandler).ServeHTTP).Methods("GET")
	r.HandleFunc("/sitemap.xml", appHandler(l.sitemapHandler).ServeHTTP).Methods("GET")

	// only posts that reach a handler count against the client
	post := api.Methods("POST").Subrouter()
	post.Use(l.sg.Middleware)
	post.HandleFunc("/problems", appHandler(l.addProblemHandler).ServeHTTP)
	post.HandleFunc("/rootcauses", appHandler(l.addNodeHandler).ServeHTTP)
	post.HandleFunc("/solutions", appHandler(l.addSolutionHandler).ServeHTTP)

	r.NotFoundHandler = appHandler(func(w http.ResponseWriter, r *http.Request) error {
		return &HTTPError{Code: http.StatusNotFound, Message: "Route not found"}
	})
	r.MethodNotAllowedHandler = appHandler(func(w http.ResponseWriter, r *http.Request) error {
		return &HTTPError{Code: http.StatusMethodNotAllowed, Message: "Method not allowed"}
	})

	var h http.Handler = r
	h = l.sessionMiddleware(h)
	h = l.corsMiddleware(h)
	return l.requestMiddleware(h)
}

// serve blocks until ctx is cancelled or the server fails.
func (l *EightD) serve(ctx context.Context) error {
	addr := l.config.Server
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           l.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if l.config.IntegrityCheck != "" {
		sweep, err := NewIntegritySweep(l.m, l.config.IntegrityCheck, l.log)
		if err != nil {
			return err
		}
		sweep.Start()
		defer sweep.Stop()
	}

	errc := make(chan error, 1)
	go func() {
		l.log.Info().Str("addr", addr).Str("database", l.config.Database).Msg("starting server")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	l.log.Info().Msg("shutting down")
	return srv.Shutdown(shutdown)
}

func (fn appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := fn(w, r); err != nil {
		s := sessionFrom(r.Context())
		code, body := toResponse(err, s.ln)
		log := zerolog.Ctx(r.Context())
		if code >= http.StatusInternalServerError {
			log.Error().Err(err).Msg("request failed")
		} else {
			log.Debug().Err(err).Int("status", code).Msg("request rejected")
		}
		if err := s.render(w, code, body); err != nil {
			log.Error().Err(err).Msg("write error response")
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// requestMiddleware tags every request with an id, puts a logger carrying
// it into the context and writes one access log line.
func (l *EightD) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		log := l.log.With().Str("request_id", id).Logger()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(log.WithContext(r.Context())))
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (l *EightD) corsMiddleware(next http.Handler) http.Handler {
	allowed := l.config.AllowOrigin
	if allowed == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed == "*" || origin == allowed) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowed)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Accept-Language, "+mockUserHeader+", "+requestIDHeader)
			h.Set("Access-Control-Expose-Headers", "X-Total-Count, Link, "+requestIDHeader)
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func getPageNumber(pageStr string) int {
	page := 1
	if len(pageStr) != 0 {
		var err error
		if page, err = strconv.Atoi(pageStr); err != nil || page < 1 {
			page = 1
		}
	}
	return page
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, &HTTPError{Code: http.StatusBadRequest, Message: "Invalid " + name, Err: err}
	}
	return id, nil
}
