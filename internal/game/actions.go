package game

// ActionKind 描述夜晚行動的類型，值即為對外傳輸用的代號
type ActionKind string

const (
	ActionJail      ActionKind = "jail"
	ActionExecute   ActionKind = "execute"
	ActionContact   ActionKind = "contact"
	ActionPair      ActionKind = "pair"
	ActionConvert   ActionKind = "convert"
	ActionHeal      ActionKind = "heal"
	ActionGuard     ActionKind = "guard"
	ActionKill      ActionKind = "kill"
	ActionBeastKill ActionKind = "beast_kill"
	ActionStab      ActionKind = "stab"
	ActionShoot     ActionKind = "shoot"
	ActionClean     ActionKind = "clean"
)

func isKillKind(k ActionKind) bool {
	switch k {
	case ActionKill, ActionBeastKill, ActionStab, ActionShoot:
		return true
	default:
		return false
	}
}

// NightAction 表示一筆排入佇列的夜晚行動
type NightAction struct {
	Actor        int
	Target       int
	Kind         ActionKind
	DeclaredRole Role // 提交層宣告的行動者角色，可留空
}

// isBypass 判斷殺擊是否無視一切保護效果
func (a NightAction) isBypass() bool {
	return a.DeclaredRole == RoleBeastman || a.Kind == ActionBeastKill
}

// QueueAction 在夜晚階段將行動排入佇列；其他階段一律拒收。
// 佇列只進不改，結算時一次性消化。
func (s *Session) QueueAction(act NightAction) error {
	if s.Status == StatusEnded {
		return ErrAlreadyEnded
	}
	if s.Status != StatusActive || !s.Phase.IsNight() {
		return ErrInvalidPhase
	}
	if _, err := s.livingSeat(act.Actor); err != nil {
		return err
	}
	if _, err := s.Seat(act.Target); err != nil {
		return err
	}
	s.queue = append(s.queue, act)
	return nil
}

// PendingActionCount 回傳目前佇列中的行動數
func (s *Session) PendingActionCount() int {
	return len(s.queue)
}
