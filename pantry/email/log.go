package email

import (
	"context"

	"go.uber.org/zap"
)

// LogSender logs each request and reports success. It is the development
// transport: nothing leaves the process.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender returns a LogSender writing to logger.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// SendTemplate logs req. The message body is logged at debug level only.
func (s *LogSender) SendTemplate(ctx context.Context, req TemplateRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	s.logger.Info("email (log transport)",
		zap.String("service_id", req.ServiceID),
		zap.String("template_id", req.TemplateID),
		zap.Strings("params", req.ParamNames()),
		zap.String("from_email", req.Params[ParamFromEmail]),
	)
	s.logger.Debug("email body (log transport)", zap.String("message", req.Params[ParamMessage]))
	return nil
}
