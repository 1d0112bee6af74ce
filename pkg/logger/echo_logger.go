package logger

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
)

// 로그에 원문을 남기면 안 되는 헤더
var maskedHeaders = map[string]bool{
	"Authorization":       true,
	"Stripe-Signature":    true,
	"X-Toss-Signature":    true,
	"X-Webhook-Signature": true,
}

// NewEchoRequestLogger HTTP 요청/응답을 zap 으로 기록하는 미들웨어
func NewEchoRequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		HandleError:   true,
		LogLatency:    true,
		LogRemoteIP:   true,
		LogMethod:     true,
		LogURI:        true,
		LogRoutePath:  true,
		LogRequestID:  true,
		LogUserAgent:  true,
		LogStatus:     true,
		LogError:      true,
		LogHeaders:    []string{"Content-Type", "Authorization", "Stripe-Signature", "X-Toss-Signature", "X-Webhook-Signature"},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request.remote_ip", v.RemoteIP),
				zap.String("request.method", v.Method),
				zap.String("request.uri", v.URI),
				zap.String("request.route", v.RoutePath),
				zap.String("request.request_id", v.RequestID),
				zap.String("request.user_agent", v.UserAgent),
				zap.Int("response.status", v.Status),
				zap.Duration("response.latency", v.Latency),
			}
			if len(v.Headers) > 0 {
				fields = append(fields, zap.Any("request.headers", maskHeaders(v.Headers)))
			}

			switch {
			case v.Error != nil:
				logger.Error("Request failed", append(fields, zap.Error(v.Error))...)
			case v.Status >= 500:
				logger.Error("Server error", fields...)
			case v.Status >= 400:
				logger.Warn("Client error", fields...)
			default:
				logger.Info("Request completed", fields...)
			}
			return nil
		},
	})
}

func maskHeaders(in map[string][]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, values := range in {
		if len(values) == 0 {
			continue
		}
		val := values[0]
		if !maskedHeaders[k] {
			out[k] = val
			continue
		}
		// 앞부분만 남긴다 (예: "Bearer eyJh...")
		if len(val) > 15 {
			out[k] = val[:10] + "..." + val[len(val)-5:]
		} else {
			out[k] = "[MASKED]"
		}
	}
	return out
}

// WithEchoLogger echo 내장 로거와 에러 핸들러를 zap 으로 교체합니다.
func WithEchoLogger(e *echo.Echo, logger *zap.Logger) {
	e.Logger = NewEchoZapLogger(logger)

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		message := http.StatusText(code)
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		}

		logger.Error("HTTP error",
			zap.Error(err),
			zap.Int("status", code),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
		)

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, map[string]interface{}{"error": message})
		}
		if err != nil {
			logger.Error("Failed to send error response", zap.Error(err))
		}
	}
}

// EchoZapLogger echo.Logger 를 zap SugaredLogger 위에 구현합니다.
// Debug/Info/Warn/Error/Fatal/Panic 계열은 임베딩된 SugaredLogger 를 그대로 사용합니다.
type EchoZapLogger struct {
	*zap.SugaredLogger
	base   *zap.Logger
	prefix string
}

// NewEchoZapLogger zap 로거 래퍼 생성
func NewEchoZapLogger(logger *zap.Logger) *EchoZapLogger {
	return &EchoZapLogger{SugaredLogger: logger.Sugar(), base: logger}
}

func (l *EchoZapLogger) Output() io.Writer { return &zapWriter{logger: l.base} }

// SetOutput zap 은 출력 대상을 코어에서 관리하므로 무시합니다.
func (l *EchoZapLogger) SetOutput(io.Writer) {}

func (l *EchoZapLogger) Level() log.Lvl {
	switch l.base.Level().String() {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}

func (l *EchoZapLogger) SetLevel(log.Lvl)   {}
func (l *EchoZapLogger) SetHeader(string)   {}
func (l *EchoZapLogger) Prefix() string     { return l.prefix }
func (l *EchoZapLogger) SetPrefix(p string) { l.prefix = p }

func (l *EchoZapLogger) Print(i ...interface{})                 { l.Info(i...) }
func (l *EchoZapLogger) Printf(format string, i ...interface{}) { l.Infof(format, i...) }
func (l *EchoZapLogger) Printj(j log.JSON)                      { l.base.Info("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Debugj(j log.JSON)                      { l.base.Debug("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Infoj(j log.JSON)                       { l.base.Info("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Warnj(j log.JSON)                       { l.base.Warn("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Errorj(j log.JSON)                      { l.base.Error("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Fatalj(j log.JSON)                      { l.base.Fatal("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Panicj(j log.JSON)                      { l.base.Panic("json_message", zap.Any("json", j)) }

type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Write(p []byte) (int, error) {
	w.logger.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
