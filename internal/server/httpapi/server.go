// Package httpapi exposes the link sync service over HTTP.
//
// Routes:
//
//	GET    /ping                       liveness check, no auth
//	GET    /links                      incremental list (showDeleted, timestampMin)
//	POST   /links                      add or replace a link
//	GET    /links/:sha                 fetch a single link
//	DELETE /links/:sha                 tombstone a link
//	POST   /registrations              register the caller's device
//
// All routes except /ping require a bearer token in the Authorization header.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nononsenseapps/linksync/internal/logging"
	"github.com/nononsenseapps/linksync/internal/server/models"
)

// LinkService is the slice of the link service the transport needs.
type LinkService interface {
	CreateOrReplace(ctx context.Context, userID, url, sha, originRegID string) (*models.Link, error)
	Delete(ctx context.Context, userID, sha, originRegID string) (*models.Link, error)
	Get(ctx context.Context, userID, sha string) (*models.Link, error)
	List(ctx context.Context, userID string, since *time.Time, showDeleted bool) ([]*models.Link, time.Time, error)
}

// DeviceService is the slice of the device service the transport needs.
type DeviceService interface {
	Register(ctx context.Context, userID, regID string) error
}

type HTTPServer struct {
	address   string
	links     LinkService
	devices   DeviceService
	logger    logging.Logger
	jwtSecret []byte
}

func NewHTTPServer(a string, l logging.Logger, ls LinkService, ds DeviceService, secretKey string) (*HTTPServer, error) {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		links:     ls,
		devices:   ds,
		jwtSecret: []byte(secretKey),
	}, nil
}

// Router builds the gin engine with all routes attached.
func (s *HTTPServer) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ping", s.ping)

	authed := r.Group("/", s.accessTokenMiddleware())
	authed.GET("/links", s.listLinks)
	authed.POST("/links", s.addLink)
	authed.GET("/links/:sha", s.getLink)
	authed.DELETE("/links/:sha", s.deleteLink)
	authed.POST("/registrations", s.registerDevice)

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
