package server

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ginSwagger "github.com/swaggo/gin-swagger"
	swaggerFiles "github.com/swaggo/files"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/annotation/stamd/internal/stamstore"
	"github.com/annotation/stamd/pool"
	_ "github.com/annotation/stamd/server/docs"
)

// Server is the HTTP adapter surface over a pool.StorePool. It holds no
// STAM domain state of its own.
type Server struct {
	pool    *pool.StorePool
	log     *logrus.Entry
	metrics *httpMetrics
	engine  *gin.Engine
}

// Config configures a new Server.
type Config struct {
	Pool       *pool.StorePool
	Logger     *logrus.Logger
	Registerer prometheus.Registerer
	Debug      bool
}

// New builds a Server and registers every route.
func New(cfg Config) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	s := &Server{
		pool:    cfg.Pool,
		log:     logger.WithField("component", "server"),
		metrics: newHTTPMetrics(cfg.Registerer),
		engine:  gin.New(),
	}
	s.engine.Use(s.requestID(), s.accessLog())

	s.engine.GET("/", s.route("index", s.handleIndex))
	s.engine.GET("/:id", s.route("query", s.handleQuery))
	s.engine.POST("/:id", s.route("create_store", s.handleCreateStore))
	s.engine.GET("/:id/annotations", s.route("list_annotations", s.handleListAnnotations))
	s.engine.GET("/:id/annotations/:aid", s.route("get_annotation", s.handleGetAnnotation))
	s.engine.GET("/:id/resources", s.route("list_resources", s.handleListResources))
	s.engine.GET("/:id/resources/:rid", s.route("get_resource", s.handleGetResource))
	s.engine.GET("/:id/resources/:rid/:begin/:end", s.route("get_resource_slice", s.handleGetResourceSlice))
	s.engine.POST("/:id/resources/:rid", s.route("create_resource", s.handleCreateResource))

	if cfg.Registerer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registerer.(prometheus.Gatherer), promhttp.HandlerOpts{})))
	}
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return s
}

// Handler returns the assembled http.Handler, wrapped with OpenTelemetry
// HTTP instrumentation around every route.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.engine, "stamd")
}

// route wraps a handler with per-route Prometheus instrumentation.
func (s *Server) route(label string, h gin.HandlerFunc) gin.HandlerFunc {
	return s.metrics.instrument(label, h)
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
		}).Debug("handled request")
	}
}

func (s *Server) fail(c *gin.Context, err *pool.Error) {
	c.JSON(statusFor(err.Kind), bodyFor(err))
}

// handleIndex serves GET /, enumerating known stores.
func (s *Server) handleIndex(c *gin.Context) {
	ids, err := s.pool.ListStores()
	if err != nil {
		s.fail(c, err.(*pool.Error))
		return
	}
	sort.Strings(ids)
	c.JSON(http.StatusOK, gin.H{"stores": ids})
}

// handleQuery serves GET /{id}: a STAMQL query with content negotiation
// across JSON, JSON-LD, HTML and plain text.
func (s *Server) handleQuery(c *gin.Context) {
	id := c.Param("id")
	qs := c.Query("query")
	if qs == "" {
		s.fail(c, &pool.Error{Kind: pool.MissingArgument, Message: "query"})
		return
	}
	rep, ok := negotiate(c.GetHeader("Accept"))
	if !ok {
		s.fail(c, &pool.Error{Kind: pool.NotAcceptable, Message: "no offered representation matches Accept header"})
		return
	}

	q, perr := stamstore.ParseQuery(qs)
	if perr != nil {
		s.fail(c, &pool.Error{Kind: pool.StamError, Message: perr.Error()})
		return
	}

	var rows interface{}
	var err *pool.Error
	if q.ReadOnly() {
		rows, err = s.pool.Map(id, func(store *stamstore.AnnotationStore) (interface{}, *pool.Error) {
			r, qerr := store.Query(q)
			if qerr != nil {
				return nil, &pool.Error{Kind: pool.StamError, Message: qerr.Error()}
			}
			return r, nil
		})
	} else {
		rows, err = s.pool.MapMut(id, func(store *stamstore.AnnotationStore) (interface{}, *pool.Error) {
			r, qerr := store.QueryMut(q)
			if qerr != nil {
				return nil, &pool.Error{Kind: pool.StamError, Message: qerr.Error()}
			}
			return r, nil
		})
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	results := rows.([]stamstore.Result)

	switch rep {
	case repHTML:
		c.Status(http.StatusOK)
		c.Header("Content-Type", "text/html; charset=utf-8")
		_ = renderHTML(c.Writer, id, qs, results)
	case repJSONLD:
		cfg, cerr := s.pool.WebAnnoConfig(id)
		if cerr != nil {
			s.fail(c, cerr)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"@context": cfg.Context,
			"results":  results,
		})
	case repText:
		c.String(http.StatusOK, "%v", results)
	default:
		c.JSON(http.StatusOK, results)
	}
}

// handleCreateStore serves POST /{id}, creating an empty store.
func (s *Server) handleCreateStore(c *gin.Context) {
	id := c.Param("id")
	if err := s.pool.NewStore(id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"@type": "AnnotationStore", "@id": id})
}

func (s *Server) handleListAnnotations(c *gin.Context) {
	id := c.Param("id")
	result, err := s.pool.Map(id, func(store *stamstore.AnnotationStore) (interface{}, *pool.Error) {
		return store.Annotations(), nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetAnnotation(c *gin.Context) {
	id, aid := c.Param("id"), c.Param("aid")
	result, err := s.pool.Map(id, func(store *stamstore.AnnotationStore) (interface{}, *pool.Error) {
		a, ok := store.Annotation(aid)
		if !ok {
			return nil, &pool.Error{Kind: pool.NotFound, Message: "no such annotation: " + aid}
		}
		return a, nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListResources(c *gin.Context) {
	id := c.Param("id")
	result, err := s.pool.Map(id, func(store *stamstore.AnnotationStore) (interface{}, *pool.Error) {
		return store.Resources(), nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetResource(c *gin.Context) {
	id, rid := c.Param("id"), c.Param("rid")
	result, err := s.pool.Map(id, func(store *stamstore.AnnotationStore) (interface{}, *pool.Error) {
		r, ok := store.Resource(rid)
		if !ok {
			return nil, &pool.Error{Kind: pool.NotFound, Message: "no such resource: " + rid}
		}
		return r, nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetResourceSlice(c *gin.Context) {
	id, rid := c.Param("id"), c.Param("rid")
	begin, berr := strconv.Atoi(c.Param("begin"))
	end, eerr := strconv.Atoi(c.Param("end"))
	if berr != nil || eerr != nil {
		s.fail(c, &pool.Error{Kind: pool.MissingArgument, Message: "begin/end must be integers"})
		return
	}
	result, err := s.pool.Map(id, func(store *stamstore.AnnotationStore) (interface{}, *pool.Error) {
		r, ok := store.Resource(rid)
		if !ok {
			return nil, &pool.Error{Kind: pool.NotFound, Message: "no such resource: " + rid}
		}
		if begin < 0 || end > len(r.Text) || begin > end {
			return nil, &pool.Error{Kind: pool.NotFound, Message: "slice out of range"}
		}
		return r.Text[begin:end], nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.String(http.StatusOK, "%v", result)
}

func (s *Server) handleCreateResource(c *gin.Context) {
	id, rid := c.Param("id"), c.Param("rid")
	body, readErr := c.GetRawData()
	if readErr != nil {
		s.fail(c, &pool.Error{Kind: pool.MissingArgument, Message: "request body"})
		return
	}
	if err := s.pool.NewResource(id, rid, string(body)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"@type": "Resource", "@id": rid})
}
