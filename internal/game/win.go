package game

import "fmt"

// SideWin 表示個人目標達成的附帶勝利，與陣營勝負互不影響
type SideWin struct {
	Seat   int    `json:"seat"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Reason string `json:"reason"`
}

// WinReport 描述終局判定的結果；Winner 為空代表同歸於盡
type WinReport struct {
	Winner   Faction
	SideWins []SideWin
}

// EvaluateWin 依固定優先序檢查終局條件，未分勝負時回傳 nil。
// 條款逐條短路，先成立者定案：
//  1. 黑手黨滅絕且市民尚存，市民勝
//  2. 市民滅絕且黑手黨尚存、人數不少於邪教，黑手黨勝
//  3. 邪教尚存且人數達到其他所有陣營存活數的總和，邪教勝
//  4. 三大陣營皆滅、僅中立存活，中立勝
//  5. 全員死絕，同歸於盡
func (s *Session) EvaluateWin() *WinReport {
	town, mafia, cult, neutral := s.CountLivingFactions()
	switch {
	case mafia == 0 && town >= 1:
		return &WinReport{Winner: FactionTown}
	case town == 0 && mafia >= 1 && mafia >= cult:
		return &WinReport{Winner: FactionMafia}
	case cult >= 1 && cult >= town+mafia+neutral:
		return &WinReport{Winner: FactionCult}
	case town == 0 && mafia == 0 && cult == 0 && neutral >= 1:
		return &WinReport{Winner: FactionNeutral}
	case town == 0 && mafia == 0 && cult == 0 && neutral == 0:
		return &WinReport{Winner: ""}
	}
	return nil
}

// finishSession 定格終局：補登倖存者的個人勝利，彙整附帶勝利名單
func (s *Session) finishSession(report *WinReport) {
	s.Status = StatusEnded
	s.winner = report.Winner

	for _, p := range s.Players {
		if p.Alive && p.Role == RoleSurvivor {
			s.sideWins = append(s.sideWins, SideWin{
				Seat: p.Seat, Name: p.Name, Role: p.Role,
				Reason: "活到了最後一刻",
			})
		}
	}
	report.SideWins = make([]SideWin, len(s.sideWins))
	copy(report.SideWins, s.sideWins)

	if report.Winner == "" {
		s.addLog("對局結束，無人生還")
		return
	}
	s.addLog(fmt.Sprintf("對局結束，%s取得勝利", report.Winner))
}

// recordLynchSideWins 在絞刑定讞時登記達成個人目標的玩家。
// 小丑以被公審處決為目標；處刑者的獵物被公審處決時同樣達標。
func (s *Session) recordLynchSideWins(lynched *Participant) {
	if lynched.Role == RoleJester {
		s.sideWins = append(s.sideWins, SideWin{
			Seat: lynched.Seat, Name: lynched.Name, Role: lynched.Role,
			Reason: "小丑被公審處決，如願以償",
		})
	}
	for _, p := range s.Players {
		if p.Alive && p.Role == RoleExecutioner && p.MarkSeat == lynched.Seat {
			s.sideWins = append(s.sideWins, SideWin{
				Seat: p.Seat, Name: p.Name, Role: p.Role,
				Reason: fmt.Sprintf("獵物 %s 被公審處決", lynched.Describe()),
			})
		}
	}
}

// Winner 回傳終局勝方；對局未結束時第二個回傳值為 false
func (s *Session) Winner() (Faction, bool) {
	if s.Status != StatusEnded {
		return "", false
	}
	return s.winner, true
}

// SideWins 回傳附帶勝利名單的副本
func (s *Session) SideWins() []SideWin {
	copySlice := make([]SideWin, len(s.sideWins))
	copy(copySlice, s.sideWins)
	return copySlice
}
