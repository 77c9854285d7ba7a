package social

import (
	"sync"
	"time"

	"github.com/lk2023060901/xdooria-social/pkg/logger"
)

// sessionManager 维护认证状态、本地玩家和最近一次错误。
// 状态只由平台回调推进，游戏层只能发起请求。
type sessionManager struct {
	logger   logger.Logger
	now      func() time.Time
	reporter ErrorReporter

	mu    sync.Mutex
	state AuthState
	// generation 每次发起认证或登出时递增，旧认证的结果据此作废
	generation  uint64
	localPlayer PlayerRef
	lastErr     ErrorRecord
	hasErr      bool
}

func newSessionManager(l logger.Logger, now func() time.Time, reporter ErrorReporter) *sessionManager {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &sessionManager{
		logger:   l,
		now:      now,
		reporter: reporter,
		state:    Unauthenticated,
	}
}

// beginAuthenticate 进入 Authenticating 并返回本次认证的代号，已认证或认证中返回 false
func (s *sessionManager) beginAuthenticate() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Authenticated, Authenticating:
		return 0, false
	}
	prev := s.state
	s.state = Authenticating
	s.generation++
	s.logger.Debug("auth state changed", "from", prev.String(), "to", s.state.String(), "generation", s.generation)
	return s.generation, true
}

// completeAuthenticate 根据平台结果进入 Authenticated 或 Failed。
// 认证期间登出或已发起新的认证时结果作废，返回 false
func (s *sessionManager) completeAuthenticate(generation uint64, player PlayerRef, err error) bool {
	s.mu.Lock()
	if s.state != Authenticating || s.generation != generation {
		s.logger.Warn("stale authentication result discarded",
			"state", s.state.String(),
			"generation", generation,
			"current_generation", s.generation,
		)
		s.mu.Unlock()
		return false
	}

	if err == nil {
		s.state = Authenticated
		s.localPlayer = player
		s.mu.Unlock()
		s.logger.Info("local player authenticated", "player_id", player.ID, "alias", player.Alias)
		return true
	}

	s.state = Failed
	s.localPlayer = PlayerRef{}
	rec := s.setErrorLocked(KindAuthentication, KindAuthenticate, err)
	s.mu.Unlock()

	s.logger.Warn("authentication failed", "error", err)
	s.reporter.ReportError(rec)
	return true
}

// signOut 平台会话失效，回到 Unauthenticated，状态有变化时返回 true
func (s *sessionManager) signOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Unauthenticated {
		return false
	}
	prev := s.state
	s.state = Unauthenticated
	s.generation++
	s.localPlayer = PlayerRef{}
	s.logger.Info("local player signed out", "from", prev.String())
	return true
}

func (s *sessionManager) available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Authenticated
}

func (s *sessionManager) currentState() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *sessionManager) player() PlayerRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localPlayer
}

// recordError 覆盖 LastError
func (s *sessionManager) recordError(kind ErrorKind, op RequestKind, err error) {
	s.mu.Lock()
	rec := s.setErrorLocked(kind, op, err)
	s.mu.Unlock()

	s.reporter.ReportError(rec)
}

func (s *sessionManager) setErrorLocked(kind ErrorKind, op RequestKind, err error) ErrorRecord {
	s.lastErr = ErrorRecord{
		Kind: kind,
		Op:   op,
		Err:  classify(kind, op, err),
		At:   s.now(),
	}
	s.hasErr = true
	return s.lastErr
}

func (s *sessionManager) lastError() (ErrorRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr, s.hasErr
}
