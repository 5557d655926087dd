package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwhitt/impltrack-mcp/internal/access"
	"github.com/mwhitt/impltrack-mcp/internal/audit"
	"github.com/mwhitt/impltrack-mcp/internal/config"
	"github.com/mwhitt/impltrack-mcp/internal/domain/hours"
	"github.com/mwhitt/impltrack-mcp/internal/domain/identity"
	"github.com/mwhitt/impltrack-mcp/internal/domain/implementation"
	"github.com/mwhitt/impltrack-mcp/internal/mcp"
	"github.com/mwhitt/impltrack-mcp/internal/ratelimit"
	"github.com/mwhitt/impltrack-mcp/internal/salesforce"
)

const (
	createLimit  = 5
	createWindow = time.Minute
	startupWait  = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("IMPLTRACK_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	tokens := salesforce.NewTokenManager(
		cfg.Salesforce.InstanceURL,
		cfg.Salesforce.ClientID,
		cfg.Salesforce.ClientSecret,
		nil,
	)
	sf := salesforce.NewClient(cfg.Salesforce.InstanceURL, cfg.Salesforce.APIVersion, tokens, logger)

	resolver := identity.NewResolver(sf, cfg.Salesforce.UserEmail, logger)

	// Fail fast: acquire a token and resolve the caller before serving.
	startupCtx, cancel := context.WithTimeout(context.Background(), startupWait)
	token, err := tokens.Token(startupCtx)
	if err != nil {
		cancel()
		logger.Error("salesforce authentication failed", "error", err)
		os.Exit(1)
	}
	logger.Debug("salesforce token acquired", "token", salesforce.TokenPrefix(token))
	caller, err := resolver.Resolve(startupCtx)
	cancel()
	if err != nil {
		logger.Error("caller identity resolution failed", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway ready", "caller", caller.Email, "role", caller.Role)

	var recorder audit.Recorder
	if cfg.Audit.Path != "" {
		store, err := audit.Open(cfg.Audit.Path)
		if err != nil {
			logger.Error("failed to open audit store", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		recorder = store
	}

	limiter := ratelimit.New(createLimit, createWindow)
	enforcer := access.NewEnforcer(sf, resolver, logger)
	implSvc := implementation.NewService(sf, limiter, enforcer, logger)
	hoursSvc := hours.NewService(sf, implSvc, limiter, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Implementations: implSvc,
			Hours:           hoursSvc,
		},
		Recorder: recorder,
		Actor:    caller.Email,
		Logger:   logger,
	})

	if cfg.Transport.Mode == "stdio" {
		runStdioMode(logger, mcpServer)
	} else {
		runHTTPMode(logger, mcpServer, cfg.Server.Host, cfg.Server.Port)
	}
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport")

	transport := &sdkmcp.StdioTransport{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, transport); err != nil {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func runHTTPMode(logger *slog.Logger, mcpServer *sdkmcp.Server, host string, port int) {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	router := http.NewServeMux()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

type logFileWriter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{path: path, file: file}
	if err := writer.truncateIfNeeded(); err != nil {
		return nil, nil, err
	}
	return writer, file, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSizeBytes {
		return nil
	}
	if size <= keepLogSizeBytes {
		return nil
	}

	buf := make([]byte, keepLogSizeBytes)
	if _, err := w.file.Seek(size-keepLogSizeBytes, io.SeekStart); err != nil {
		return err
	}
	n, err := w.file.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}
