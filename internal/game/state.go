package game

import (
	"errors"
	"fmt"
	"math/rand"
)

// 對外提交操作時可能回傳的錯誤
var (
	ErrInvalidPhase    = errors.New("目前階段不允許這個操作")
	ErrUnknownSeat     = errors.New("座位編號不存在")
	ErrDeadSeat        = errors.New("該座位的玩家已經死亡")
	ErrAlreadyActive   = errors.New("對局已經開始")
	ErrAlreadyEnded    = errors.New("對局已經結束")
	ErrResolutionFault = errors.New("結算時發生內部錯誤")
)

// Status 表示對局生命週期
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

// Session 表示一場完整的對局狀態。
// 所有修改都必須由同一個持有者序列化執行；本套件不做鎖定。
type Session struct {
	Status  Status
	Phase   Phase
	Day     int
	Players []*Participant

	queue    []NightAction
	dayVotes map[int]int
	verdicts map[int]Verdict
	accused  int
	lovers   map[int]int
	sideWins []SideWin
	winner   Faction

	rng  *rand.Rand
	logs []string
}

func (s *Session) addLog(entry string) {
	s.logs = append(s.logs, entry)
}

// Logs 返回事件紀錄的副本
func (s *Session) Logs() []string {
	copySlice := make([]string, len(s.logs))
	copy(copySlice, s.logs)
	return copySlice
}

// Seat 依座位編號取得玩家
func (s *Session) Seat(seat int) (*Participant, error) {
	if seat < 0 || seat >= len(s.Players) {
		return nil, ErrUnknownSeat
	}
	return s.Players[seat], nil
}

func (s *Session) livingSeat(seat int) (*Participant, error) {
	p, err := s.Seat(seat)
	if err != nil {
		return nil, err
	}
	if !p.Alive {
		return nil, ErrDeadSeat
	}
	return p, nil
}

// AlivePlayers 回傳仍存活的玩家
func (s *Session) AlivePlayers() []*Participant {
	result := make([]*Participant, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Alive {
			result = append(result, p)
		}
	}
	return result
}

// CountLivingFactions 統計各陣營的存活人數
func (s *Session) CountLivingFactions() (town, mafia, cult, neutral int) {
	for _, p := range s.Players {
		if !p.Alive {
			continue
		}
		switch p.Faction {
		case FactionTown:
			town++
		case FactionMafia:
			mafia++
		case FactionCult:
			cult++
		case FactionNeutral:
			neutral++
		}
	}
	return
}

// Accused 回傳目前被指控的座位
func (s *Session) Accused() (int, bool) {
	if s.accused < 0 {
		return -1, false
	}
	return s.accused, true
}

// Lover 回傳指定座位的愛人
func (s *Session) Lover(seat int) (int, bool) {
	lover, ok := s.lovers[seat]
	return lover, ok
}

// Start 啟動對局並進入第一夜
func (s *Session) Start() error {
	switch s.Status {
	case StatusActive:
		return ErrAlreadyActive
	case StatusEnded:
		return ErrAlreadyEnded
	}
	s.Status = StatusActive
	s.Phase = PhaseNight
	s.Day = 1
	s.addLog("第 1 夜降臨，全鎮陷入黑暗")
	return nil
}

// Transition 描述一次階段推進的完整結果，交由外層廣播
type Transition struct {
	From Phase
	To   Phase
	Day  int

	Night      *NightOutcome
	Accusation *AccusationResult
	Verdict    *VerdictOutcome

	// Fault 為結算途中被攔截的內部錯誤；已完成段落的效果仍然保留
	Fault error

	Ended bool
	Win   *WinReport
}

// AdvancePhase 在計時器到期時由控制器呼叫：結束當前階段的結算，
// 依固定循環進入下一階段。勝負揭曉時對局標記為結束，不再進入新階段。
func (s *Session) AdvancePhase() (*Transition, error) {
	if s.Status == StatusEnded {
		return nil, ErrAlreadyEnded
	}
	if s.Status != StatusActive {
		return nil, ErrInvalidPhase
	}

	tr := &Transition{From: s.Phase}

	switch s.Phase {
	case PhaseNight:
		tr.Night, tr.Fault = s.resolveNightGuarded()
		// 不論結算成敗，當夜的行動佇列一律作廢
		s.queue = s.queue[:0]
	case PhaseDayVote:
		tr.Accusation, tr.Fault = s.resolveAccusationGuarded()
	case PhaseDayFinal:
		tr.Verdict, tr.Fault = s.resolveVerdictGuarded()
	}

	if win := s.concludeIfDecided(); win != nil {
		tr.Ended = true
		tr.Win = win
		tr.To = s.Phase
		tr.Day = s.Day
		return tr, nil
	}

	next := nextPhase(s.Phase, s.accused >= 0)
	s.Phase = next
	if next == PhaseNight {
		s.Day++
		s.addLog(fmt.Sprintf("第 %d 夜降臨，全鎮陷入黑暗", s.Day))
	}
	tr.To = next
	tr.Day = s.Day
	return tr, nil
}

func (s *Session) resolveNightGuarded() (outcome *NightOutcome, fault error) {
	defer func() {
		if r := recover(); r != nil {
			fault = fmt.Errorf("%w: %v", ErrResolutionFault, r)
			s.addLog("夜晚結算中斷，部分行動可能未生效")
		}
	}()
	return s.resolveNight(), nil
}

func (s *Session) resolveAccusationGuarded() (result *AccusationResult, fault error) {
	defer func() {
		if r := recover(); r != nil {
			fault = fmt.Errorf("%w: %v", ErrResolutionFault, r)
			s.addLog("指控計票中斷")
		}
	}()
	return s.resolveAccusation(), nil
}

func (s *Session) resolveVerdictGuarded() (outcome *VerdictOutcome, fault error) {
	defer func() {
		if r := recover(); r != nil {
			fault = fmt.Errorf("%w: %v", ErrResolutionFault, r)
			s.addLog("生死表決計票中斷")
		}
	}()
	return s.resolveVerdict(), nil
}

// concludeIfDecided 在名單變動後檢查終局條件，成立時結束對局
func (s *Session) concludeIfDecided() *WinReport {
	report := s.EvaluateWin()
	if report == nil {
		return nil
	}
	s.finishSession(report)
	return report
}

func describeSeat(seat int, name string) string {
	return fmt.Sprintf("%d 號 %s", seat, name)
}
