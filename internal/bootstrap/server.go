package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/travelagency/config"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

// ServiceName is the name the gRPC health service reports for this backend.
const ServiceName = "travel.agency"

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
	gateway    *grpc.ClientConn
}

// Run starts the gRPC health server and the HTTP server (API, health gateway
// and docs) and blocks until ctx is cancelled or a server fails.
func Run(ctx context.Context, cfg *config.Config, app http.Handler) error {
	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}

	s, err := newServers(cfg, app, lis.Addr().String())
	if err != nil {
		_ = lis.Close()
		return err
	}
	defer s.gateway.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("grpc server listening", "address", lis.Addr().String())
		return s.grpcServer.Serve(lis)
	})
	g.Go(func() error {
		slog.Info("http server listening", "address", cfg.HTTP.Address)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})
	return g.Wait()
}

func (s *Servers) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func newServers(cfg *config.Config, app http.Handler, grpcAddr string) (*Servers, error) {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	conn, err := grpc.NewClient(dialTarget(grpcAddr), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial gRPC health: %w", err)
	}

	gateway, err := newGateway(healthpb.NewHealthClient(conn))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Servers{
		grpcServer: grpcSrv,
		health:     healthSrv,
		gateway:    conn,
		httpServer: &http.Server{
			Addr:         cfg.HTTP.Address,
			Handler:      newHTTPHandler(cfg.HTTP, app, gateway),
			ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSeconds) * time.Second,
			WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSeconds) * time.Second,
		},
	}, nil
}

// newGateway exposes the gRPC health service over HTTP at /v1/health.
func newGateway(client healthpb.HealthClient) (*runtime.ServeMux, error) {
	mux := runtime.NewServeMux()
	err := mux.HandlePath(http.MethodGet, "/v1/health", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		resp, err := client.Check(r.Context(), &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		body, err := protojson.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		status := http.StatusOK
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	})
	if err != nil {
		return nil, fmt.Errorf("register health gateway: %w", err)
	}
	return mux, nil
}

func newHTTPHandler(cfg config.HTTPConfig, app, gateway http.Handler) http.Handler {
	handler := http.NewServeMux()
	handler.Handle("/v1/", gateway)
	handler.Handle("/", app)

	if cfg.SwaggerDir != "" {
		fs := http.FileServer(http.Dir(cfg.SwaggerDir))
		handler.Handle("/swagger/", http.StripPrefix("/swagger/", fs))
		handler.Handle("/docs/", httpSwagger.Handler(httpSwagger.URL("/swagger/openapi.json")))
	}
	return handler
}

func dialTarget(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	if host, port, err := net.SplitHostPort(addr); err == nil && (host == "" || host == "0.0.0.0" || host == "::") {
		return net.JoinHostPort("localhost", port)
	}
	return addr
}
