package game

// Phase 表示對局目前所處的階段，值即為對外傳輸用的代號
type Phase string

const (
	PhaseNight      Phase = "night"
	PhaseDayDiscuss Phase = "day_discuss"
	PhaseDayVote    Phase = "day_vote"
	PhaseDayDefence Phase = "day_defence"
	PhaseDayFinal   Phase = "day_final"
)

func (p Phase) String() string {
	switch p {
	case PhaseNight:
		return "黑夜"
	case PhaseDayDiscuss:
		return "白天討論"
	case PhaseDayVote:
		return "公審投票"
	case PhaseDayDefence:
		return "被告辯護"
	case PhaseDayFinal:
		return "生死表決"
	default:
		return "等待中"
	}
}

// IsNight 判斷是否為夜晚階段
func (p Phase) IsNight() bool {
	return p == PhaseNight
}

// nextPhase 回傳固定循環中的下一個階段。
// 無人被指控時跳過生死表決，由辯護階段直接入夜；這是唯一允許的捷徑。
func nextPhase(current Phase, hasAccused bool) Phase {
	switch current {
	case PhaseNight:
		return PhaseDayDiscuss
	case PhaseDayDiscuss:
		return PhaseDayVote
	case PhaseDayVote:
		return PhaseDayDefence
	case PhaseDayDefence:
		if hasAccused {
			return PhaseDayFinal
		}
		return PhaseNight
	case PhaseDayFinal:
		return PhaseNight
	default:
		return PhaseNight
	}
}
