package game

import "fmt"

// AbstainVote 表示棄票；公審計票時列入總數但不指向任何人
const AbstainVote = -1

// Verdict 表示生死表決的立場
type Verdict string

const (
	VerdictGuilty   Verdict = "guilty"
	VerdictInnocent Verdict = "innocent"
)

// CastVote 登記公審投票，同一人重複投票以最後一票為準
func (s *Session) CastVote(voter, target int) error {
	if s.Status == StatusEnded {
		return ErrAlreadyEnded
	}
	if s.Status != StatusActive || s.Phase != PhaseDayVote {
		return ErrInvalidPhase
	}
	if _, err := s.livingSeat(voter); err != nil {
		return err
	}
	if target != AbstainVote {
		if _, err := s.livingSeat(target); err != nil {
			return err
		}
	}
	s.dayVotes[voter] = target
	return nil
}

// CastVerdict 登記生死表決，同一人重複表決以最後一次為準
func (s *Session) CastVerdict(voter int, v Verdict) error {
	if s.Status == StatusEnded {
		return ErrAlreadyEnded
	}
	if s.Status != StatusActive || s.Phase != PhaseDayFinal {
		return ErrInvalidPhase
	}
	if _, err := s.livingSeat(voter); err != nil {
		return err
	}
	if v != VerdictGuilty && v != VerdictInnocent {
		return fmt.Errorf("無效的表決立場 %q", v)
	}
	s.verdicts[voter] = v
	return nil
}

// AccusationResult 描述公審投票的結果
type AccusationResult struct {
	Accused      int
	Counts       map[int]int
	Announcement string
}

// resolveAccusation 統計公審票數。唯一最高票者被推上審判台；
// 平手、無人投票、或棄票居冠時不指控任何人。棄票與座位同場競逐。
func (s *Session) resolveAccusation() *AccusationResult {
	counts := make(map[int]int)
	for _, target := range s.dayVotes {
		counts[target]++
	}
	s.dayVotes = make(map[int]int)

	top, best, tie := AbstainVote, 0, false
	for target, n := range counts {
		switch {
		case n > best:
			top, best, tie = target, n, false
		case n == best && best > 0:
			tie = true
		}
	}
	if tie || best == 0 || top == AbstainVote {
		top = AbstainVote
	}

	result := &AccusationResult{Accused: top, Counts: counts}
	if top == AbstainVote {
		s.accused = AbstainVote
		result.Announcement = "公審投票沒有共識，無人被指控"
	} else {
		s.accused = top
		result.Announcement = fmt.Sprintf("%s 被推上了審判台", s.Players[top].Describe())
	}
	s.addLog(result.Announcement)
	return result
}

// VerdictOutcome 描述生死表決的結果
type VerdictOutcome struct {
	Accused      int
	Guilty       int
	Innocent     int
	Lynched      bool
	Death        *DeathRecord
	Announcement string
}

// resolveVerdict 統計生死表決。有罪票嚴格多於無罪票才執行絞刑；
// 絞刑必定揭露身分，不受屍體清理影響。
func (s *Session) resolveVerdict() *VerdictOutcome {
	out := &VerdictOutcome{Accused: s.accused}
	for _, v := range s.verdicts {
		switch v {
		case VerdictGuilty:
			out.Guilty++
		case VerdictInnocent:
			out.Innocent++
		}
	}
	accusedSeat := s.accused
	s.verdicts = make(map[int]Verdict)
	s.accused = AbstainVote

	if accusedSeat == AbstainVote {
		return out
	}
	accused := s.Players[accusedSeat]
	if out.Guilty > out.Innocent && accused.Alive {
		accused.Alive = false
		accused.Revealed = true
		out.Lynched = true
		out.Death = &DeathRecord{
			Seat: accused.Seat, Name: accused.Name,
			Role: accused.Role, RoleName: accused.Role.String(), Faction: accused.Faction,
		}
		out.Announcement = fmt.Sprintf("全鎮表決通過，%s 被處以絞刑，身分是%s（%s）", accused.Describe(), accused.Role, accused.Faction)
		s.addLog(out.Announcement)
		s.recordLynchSideWins(accused)
		return out
	}
	out.Announcement = fmt.Sprintf("表決未能定罪，%s 走下了審判台", accused.Describe())
	s.addLog(out.Announcement)
	return out
}
