package ripping

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"mkvauto/internal/disc"
	"mkvauto/internal/logging"
)

// MakeMKV MSG codes handled during a rip.
const (
	msgReadError         = 2003
	msgWriteError        = 2019
	msgTitleError        = 5003
	msgRipCompleted      = 5004
	msgDiscOpenError     = 5010
	msgExpiredTooOld     = 5021
	msgEvalPeriod        = 5052
	msgExpiredShareware  = 5055
	msgBackupFailed      = 5080
	discMessageThreshold = 5000
)

// msgHandler tracks the rip outcome from MSG lines.
type msgHandler struct {
	logger      *slog.Logger
	abort       func(error)
	saved       int
	failed      int
	reported    bool
	evaluation  bool
	readErrors  int
	lastMessage string
	fatalErr    error
}

func (h *msgHandler) handleLine(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	if strings.HasPrefix(trimmed, "Error ") {
		h.readErrors++
		logging.WarnWithContext(h.logger, "makemkv disc error", "makemkv_disc_error",
			logging.String("detail", trimmed),
			logging.Int("disc_error_count", h.readErrors),
			logging.String(logging.FieldErrorHint, "disc may have physical damage or drive issue"),
			logging.String(logging.FieldImpact, "output may be corrupted or incomplete"),
		)
		return
	}
	msg, ok := disc.ParseMessage(trimmed)
	if !ok {
		if isEvaluationNotice(trimmed) {
			h.noteEvaluation(trimmed)
		}
		return
	}
	if msg.Text != "" {
		h.lastMessage = msg.Text
	}
	h.handleMessage(msg)
}

func (h *msgHandler) handleMessage(msg disc.Message) {
	switch msg.Code {
	case msgReadError:
		h.readErrors++
		logging.WarnWithContext(h.logger, "makemkv read error", "makemkv_read_error",
			logging.String("msg_text", msg.Text),
			logging.Int("read_error_count", h.readErrors),
			logging.String(logging.FieldErrorHint, "disc may have physical damage or drive issue"),
			logging.String(logging.FieldImpact, "rip may produce corrupted or incomplete output"),
		)
	case msgWriteError:
		h.logger.Error("makemkv write error",
			logging.String(logging.FieldEventType, "makemkv_write_error"),
			logging.String("msg_text", msg.Text),
		)
		if strings.Contains(msg.Text, "No such file") {
			h.fail(fmt.Errorf("write failed: %s", msg.Text))
		}
	case msgTitleError:
		logging.WarnWithContext(h.logger, "makemkv title save failed", "makemkv_title_error",
			logging.String("msg_text", msg.Text),
			logging.String(logging.FieldErrorHint, "one title failed but other titles may succeed"),
			logging.String(logging.FieldImpact, "single title missing from output"),
		)
	case msgRipCompleted:
		h.saved, h.failed = parseSavedFailed(msg.Params)
		h.reported = true
		h.logger.Info("makemkv rip result",
			logging.String(logging.FieldEventType, "makemkv_rip_result"),
			logging.Int("titles_saved", h.saved),
			logging.Int("titles_failed", h.failed),
		)
	case msgDiscOpenError:
		logging.WarnWithContext(h.logger, "makemkv disc open error", "makemkv_disc_open_error",
			logging.String("msg_text", msg.Text),
			logging.String(logging.FieldErrorHint, "disc may not be readable or drive may be busy"),
			logging.String(logging.FieldImpact, "rip cannot proceed until disc is accessible"),
		)
	case msgExpiredTooOld, msgExpiredShareware:
		logging.ErrorWithContext(h.logger, "makemkv license expired", "makemkv_license_expired",
			logging.Int("msg_code", msg.Code),
			logging.String("msg_text", msg.Text),
			logging.String(logging.FieldErrorHint, "update MakeMKV or register a key"),
		)
		h.fail(fmt.Errorf("license expired: %s", msg.Text))
	case msgEvalPeriod:
		h.noteEvaluation(msg.Text)
	case msgBackupFailed:
		h.fail(fmt.Errorf("backup failed: %s", msg.Text))
	default:
		if isEvaluationNotice(msg.Text) {
			h.noteEvaluation(msg.Text)
			return
		}
		if msg.Code >= discMessageThreshold {
			h.logger.Warn("makemkv disc message",
				logging.String(logging.FieldEventType, "makemkv_disc_message"),
				logging.Int("msg_code", msg.Code),
				logging.String("msg_text", msg.Text),
			)
			return
		}
		h.logger.Debug("makemkv message",
			logging.Int("msg_code", msg.Code),
			logging.String("msg_text", msg.Text),
		)
	}
}

func (h *msgHandler) noteEvaluation(text string) {
	if h.evaluation {
		return
	}
	h.evaluation = true
	logging.WarnWithContext(h.logger, "makemkv is running in evaluation mode", "makemkv_evaluation",
		logging.String("msg_text", text),
		logging.String(logging.FieldErrorHint, "register a MakeMKV key to leave evaluation mode"),
		logging.String(logging.FieldImpact, "rip continues under evaluation limits"),
	)
}

func (h *msgHandler) fail(err error) {
	if h.fatalErr != nil {
		return
	}
	h.fatalErr = err
	if h.abort != nil {
		h.abort(err)
	}
}

// outcome returns the error that should fail the rip, if any.
func (h *msgHandler) outcome() error {
	if h.fatalErr != nil {
		return h.fatalErr
	}
	if h.reported && h.saved == 0 {
		return errors.New("makemkv saved 0 titles; check disc readability")
	}
	return nil
}

func isEvaluationNotice(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "evaluation") || strings.Contains(lower, "unregistered")
}

func parseSavedFailed(params []string) (int, int) {
	var saved, failed int
	if len(params) > 0 {
		saved, _ = strconv.Atoi(params[0])
	}
	if len(params) > 1 {
		failed, _ = strconv.Atoi(params[1])
	}
	return saved, failed
}
