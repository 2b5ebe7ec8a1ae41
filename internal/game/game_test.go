package game

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func testNames() []string {
	names := make([]string, SeatCount)
	for i := range names {
		names[i] = fmt.Sprintf("P%d", i)
	}
	return names
}

// rebuildRoster 以固定配置覆寫整份名單，未指定的座位一律補為八卦客
func rebuildRoster(s *Session, layout map[int]Role) {
	for _, p := range s.Players {
		role, ok := layout[p.Seat]
		if !ok {
			role = RoleGossip
		}
		p.Role = role
		p.Faction = RoleFaction(role)
		p.Alive = true
		p.Revealed = false
		p.ProtectionUsed = false
		p.ExecuteLeft = role == RoleJailor
		p.Contacted = false
		p.BodyConcealed = false
		p.Converted = false
		p.MarkSeat = -1
	}
}

func hasNotice(out *NightOutcome, seat int, keyword string) bool {
	for _, msg := range out.Notices[seat] {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}

func hasAnnouncement(messages []string, keyword string) bool {
	for _, msg := range messages {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}

func mateListed(mates []Mate, seat int) bool {
	for _, m := range mates {
		if m.Seat == seat {
			return true
		}
	}
	return false
}

func TestNewSessionSetup(t *testing.T) {
	s, err := NewSession(testNames(), 42)
	if err != nil {
		t.Fatalf("NewSession 應該成功，卻得到錯誤：%v", err)
	}
	if s.Status != StatusWaiting {
		t.Fatalf("開局前狀態應為 waiting，實際 %s", s.Status)
	}
	if len(s.Players) != SeatCount {
		t.Fatalf("預期 %d 名玩家，實際 %d", SeatCount, len(s.Players))
	}

	town, mafia, cult, neutral := s.CountLivingFactions()
	if town != 10 {
		t.Fatalf("市民應為 10 人，實際 %d", town)
	}
	if mafia != 4 {
		t.Fatalf("黑手黨應為 4 人，實際 %d", mafia)
	}
	if cult != 3 {
		t.Fatalf("邪教應為 3 人，實際 %d", cult)
	}
	if neutral != 3 {
		t.Fatalf("中立應為 3 人，實際 %d", neutral)
	}

	godfathers, cultLeaders, fanatics := 0, 0, 0
	neutralSeen := map[Role]bool{}
	for _, p := range s.Players {
		if !p.Alive {
			t.Fatalf("初始化時玩家不應死亡")
		}
		if p.Revealed {
			t.Fatalf("初始化時身分不應揭露")
		}
		if p.Faction != RoleFaction(p.Role) {
			t.Fatalf("玩家 %s 的陣營 %s 與角色 %s 不符", p.Name, p.Faction, p.Role)
		}
		switch p.Role {
		case RoleGodfather:
			godfathers++
		case RoleCultLeader:
			cultLeaders++
		case RoleFanatic:
			fanatics++
		}
		if p.IsNeutral() {
			if neutralSeen[p.Role] {
				t.Fatalf("中立角色 %s 不應重複", p.Role)
			}
			neutralSeen[p.Role] = true
		}
		if p.Role == RoleJailor && !p.ExecuteLeft {
			t.Fatalf("獄卒開局應持有處決權")
		}
		if p.Role == RoleExecutioner {
			if p.MarkSeat < 0 {
				t.Fatalf("處刑者開局應獲指派獵物")
			}
			if !s.Players[p.MarkSeat].IsTown() {
				t.Fatalf("處刑者的獵物應為市民")
			}
		}
		if p.Role != RoleExecutioner && p.MarkSeat != -1 {
			t.Fatalf("非處刑者不應有獵物標記")
		}
	}
	if godfathers != 1 {
		t.Fatalf("教父應恰好 1 名，實際 %d", godfathers)
	}
	if cultLeaders != 1 || fanatics != 1 {
		t.Fatalf("教主與狂信徒應各 1 名，實際 %d 與 %d", cultLeaders, fanatics)
	}

	if _, err := NewSession([]string{"甲", "乙"}, 42); !errors.Is(err, ErrInvalidPlayerCount) {
		t.Fatalf("人數不足應回報 ErrInvalidPlayerCount，實際 %v", err)
	}
}

func TestSeededAssignmentDeterministic(t *testing.T) {
	a, _ := NewSession(testNames(), 7)
	b, _ := NewSession(testNames(), 7)
	for i := range a.Players {
		if a.Players[i].Role != b.Players[i].Role {
			t.Fatalf("相同種子應產生相同角色分配，座位 %d 出現 %s 與 %s", i, a.Players[i].Role, b.Players[i].Role)
		}
		if a.Players[i].MarkSeat != b.Players[i].MarkSeat {
			t.Fatalf("相同種子應產生相同獵物指派")
		}
	}
}

func TestPhaseCycleSkipsFinalWithoutAccusation(t *testing.T) {
	s, _ := NewSession(testNames(), 9)
	if err := s.Start(); err != nil {
		t.Fatalf("開局失敗：%v", err)
	}
	if s.Phase != PhaseNight || s.Day != 1 {
		t.Fatalf("開局後應為第 1 夜，實際 %s 第 %d 天", s.Phase, s.Day)
	}
	if err := s.Start(); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("重複開局應回報 ErrAlreadyActive，實際 %v", err)
	}

	expected := []Phase{PhaseDayDiscuss, PhaseDayVote, PhaseDayDefence, PhaseNight}
	for i, want := range expected {
		tr, err := s.AdvancePhase()
		if err != nil {
			t.Fatalf("第 %d 次推進失敗：%v", i+1, err)
		}
		if tr.To != want {
			t.Fatalf("第 %d 次推進應進入 %s，實際 %s", i+1, want, tr.To)
		}
	}
	if s.Day != 2 {
		t.Fatalf("重新入夜後應為第 2 天，實際 %d", s.Day)
	}
}

func TestAccusationLifecycle(t *testing.T) {
	s, _ := NewSession(testNames(), 11)
	s.Start()
	for i := 0; i < 2; i++ {
		if _, err := s.AdvancePhase(); err != nil {
			t.Fatalf("推進失敗：%v", err)
		}
	}
	if s.Phase != PhaseDayVote {
		t.Fatalf("應處於公審投票階段，實際 %s", s.Phase)
	}
	if err := s.CastVote(0, 5); err != nil {
		t.Fatalf("投票應被接受：%v", err)
	}
	s.CastVote(1, 5)
	s.CastVote(2, 5)
	s.CastVote(3, AbstainVote)

	tr, _ := s.AdvancePhase()
	if tr.Accusation == nil || tr.Accusation.Accused != 5 {
		t.Fatalf("5 號應被指控")
	}
	if tr.Accusation.Counts[5] != 3 {
		t.Fatalf("5 號應得 3 票，實際 %d", tr.Accusation.Counts[5])
	}
	if accused, ok := s.Accused(); !ok || accused != 5 {
		t.Fatalf("指控狀態應記錄 5 號")
	}
	if tr.To != PhaseDayDefence {
		t.Fatalf("指控後應進入辯護階段，實際 %s", tr.To)
	}

	tr, _ = s.AdvancePhase()
	if tr.To != PhaseDayFinal {
		t.Fatalf("有指控時辯護後應進入生死表決，實際 %s", tr.To)
	}

	s.CastVerdict(0, VerdictGuilty)
	s.CastVerdict(1, VerdictInnocent)
	s.CastVerdict(2, VerdictInnocent)
	tr, _ = s.AdvancePhase()
	if tr.Verdict == nil || tr.Verdict.Lynched {
		t.Fatalf("1 比 2 不應定罪")
	}
	if tr.Verdict.Guilty != 1 || tr.Verdict.Innocent != 2 {
		t.Fatalf("表決票數應為 1 比 2，實際 %d 比 %d", tr.Verdict.Guilty, tr.Verdict.Innocent)
	}
	if !s.Players[5].Alive {
		t.Fatalf("未定罪的被告應存活")
	}
	if _, ok := s.Accused(); ok {
		t.Fatalf("表決後指控應被清除")
	}
	if tr.To != PhaseNight || s.Day != 2 {
		t.Fatalf("表決後應入夜進入第 2 天，實際 %s 第 %d 天", tr.To, s.Day)
	}
}

func TestVoteValidation(t *testing.T) {
	s, _ := NewSession(testNames(), 13)
	if err := s.CastVote(0, 1); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("開局前投票應被拒絕，實際 %v", err)
	}
	s.Start()
	if err := s.CastVote(0, 1); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("夜晚投票應被拒絕，實際 %v", err)
	}
	s.Phase = PhaseDayVote
	s.Players[4].Alive = false
	if err := s.CastVote(4, 1); !errors.Is(err, ErrDeadSeat) {
		t.Fatalf("死者投票應被拒絕，實際 %v", err)
	}
	if err := s.CastVote(0, 4); !errors.Is(err, ErrDeadSeat) {
		t.Fatalf("投給死者應被拒絕，實際 %v", err)
	}
	if err := s.CastVote(0, 99); !errors.Is(err, ErrUnknownSeat) {
		t.Fatalf("投給不存在的座位應被拒絕，實際 %v", err)
	}
	if err := s.CastVote(0, AbstainVote); err != nil {
		t.Fatalf("棄票應被接受：%v", err)
	}
	if err := s.CastVerdict(0, VerdictGuilty); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("投票階段提交表決應被拒絕，實際 %v", err)
	}
	s.Phase = PhaseDayFinal
	if err := s.CastVerdict(0, Verdict("maybe")); err == nil {
		t.Fatalf("無效表決立場應被拒絕")
	}
	if err := s.CastVerdict(0, VerdictInnocent); err != nil {
		t.Fatalf("合法表決應被接受：%v", err)
	}
}

func TestAccusationTieAndAbstainTop(t *testing.T) {
	s, _ := NewSession(testNames(), 17)
	s.Start()
	s.Phase = PhaseDayVote
	s.CastVote(0, 5)
	s.CastVote(1, 5)
	s.CastVote(2, 6)
	s.CastVote(3, 6)
	res := s.resolveAccusation()
	if res.Accused != AbstainVote {
		t.Fatalf("平票不應產生指控，實際 %d", res.Accused)
	}
	if _, ok := s.Accused(); ok {
		t.Fatalf("平票後不應記錄被告")
	}

	s.CastVote(0, AbstainVote)
	s.CastVote(1, AbstainVote)
	s.CastVote(2, 6)
	res = s.resolveAccusation()
	if res.Accused != AbstainVote {
		t.Fatalf("棄票居冠不應產生指控，實際 %d", res.Accused)
	}

	s.CastVote(0, 7)
	s.CastVote(1, 7)
	s.CastVote(2, 6)
	res = s.resolveAccusation()
	if res.Accused != 7 {
		t.Fatalf("7 號應以 2 票勝出，實際 %d", res.Accused)
	}
}

func TestVoteLastWins(t *testing.T) {
	s, _ := NewSession(testNames(), 19)
	s.Start()
	s.Phase = PhaseDayVote
	s.CastVote(0, 5)
	s.CastVote(0, 6)
	s.CastVote(1, 6)
	res := s.resolveAccusation()
	if res.Accused != 6 {
		t.Fatalf("改票後 6 號應以 2 票當選，實際 %d", res.Accused)
	}
	if res.Counts[5] != 0 {
		t.Fatalf("被改掉的票不應計入，實際 %d", res.Counts[5])
	}
}

func TestVerdictLynchRevealsAndSideWins(t *testing.T) {
	s, _ := NewSession(testNames(), 21)
	rebuildRoster(s, map[int]Role{
		0:  RoleMafioso,
		9:  RoleJester,
		11: RoleExecutioner,
	})
	s.Players[11].MarkSeat = 9
	s.Start()
	s.Phase = PhaseDayFinal
	s.accused = 9
	s.CastVerdict(0, VerdictGuilty)
	s.CastVerdict(1, VerdictGuilty)
	s.CastVerdict(2, VerdictInnocent)

	tr, err := s.AdvancePhase()
	if err != nil {
		t.Fatalf("推進失敗：%v", err)
	}
	if tr.Verdict == nil || !tr.Verdict.Lynched {
		t.Fatalf("2 比 1 應定罪處決")
	}
	if tr.Verdict.Death == nil || tr.Verdict.Death.Seat != 9 {
		t.Fatalf("死亡紀錄應指向 9 號")
	}
	if !strings.Contains(tr.Verdict.Announcement, "絞刑") {
		t.Fatalf("公告應提及絞刑，實際 %q", tr.Verdict.Announcement)
	}
	p := s.Players[9]
	if p.Alive || !p.Revealed {
		t.Fatalf("被處決者應死亡且身分揭露")
	}

	var jesterWin, executionerWin bool
	for _, w := range s.SideWins() {
		if w.Seat == 9 && w.Role == RoleJester {
			jesterWin = true
		}
		if w.Seat == 11 && w.Role == RoleExecutioner {
			executionerWin = true
		}
	}
	if !jesterWin {
		t.Fatalf("小丑被處決應記入附帶勝利")
	}
	if !executionerWin {
		t.Fatalf("處刑者的獵物被處決應記入附帶勝利")
	}
}

func TestWinEvaluatorOrderAndIdempotence(t *testing.T) {
	s, _ := NewSession(testNames(), 23)
	rebuildRoster(s, map[int]Role{
		0:  RoleMafioso,
		1:  RoleVigilante,
		12: RoleSurvivor,
	})
	s.Start()
	if report := s.EvaluateWin(); report != nil {
		t.Fatalf("尚未分出勝負時不應有結果，實際 %v", report.Winner)
	}
	if report := s.EvaluateWin(); report != nil {
		t.Fatalf("重複評估結果應一致")
	}

	if err := s.QueueAction(NightAction{Actor: 1, Target: 0, Kind: ActionShoot, DeclaredRole: RoleVigilante}); err != nil {
		t.Fatalf("義警開槍應被接受：%v", err)
	}
	tr, err := s.AdvancePhase()
	if err != nil {
		t.Fatalf("推進失敗：%v", err)
	}
	if !tr.Ended || tr.Win == nil || tr.Win.Winner != FactionTown {
		t.Fatalf("最後一名黑手黨死亡後市民應立即獲勝")
	}
	if s.Status != StatusEnded {
		t.Fatalf("對局應標記為結束")
	}
	if tr.To != PhaseNight {
		t.Fatalf("終局後不應再進入新階段，實際 %s", tr.To)
	}

	var survivorWin bool
	for _, w := range tr.Win.SideWins {
		if w.Seat == 12 && w.Role == RoleSurvivor {
			survivorWin = true
		}
	}
	if !survivorWin {
		t.Fatalf("存活的倖存者應記入附帶勝利")
	}

	if _, err := s.AdvancePhase(); !errors.Is(err, ErrAlreadyEnded) {
		t.Fatalf("終局後推進應回報 ErrAlreadyEnded，實際 %v", err)
	}
	if err := s.QueueAction(NightAction{Actor: 1, Target: 2, Kind: ActionShoot}); !errors.Is(err, ErrAlreadyEnded) {
		t.Fatalf("終局後行動應被拒收，實際 %v", err)
	}

	winner, ok := s.Winner()
	if !ok || winner != FactionTown {
		t.Fatalf("勝方應為市民陣營")
	}

	report, err := s.BuildFinalReport()
	if err != nil {
		t.Fatalf("終局報告產生失敗：%v", err)
	}
	if report.Winner != FactionTown || report.WinnerLabel != "市民陣營" {
		t.Fatalf("報告勝方錯誤：%v %s", report.Winner, report.WinnerLabel)
	}
	if len(report.Roster) != SeatCount {
		t.Fatalf("報告應揭露全部 %d 個座位，實際 %d", SeatCount, len(report.Roster))
	}
	for _, seat := range report.Roster {
		if seat.Role == "" || seat.RoleName == "" {
			t.Fatalf("終局報告應揭露所有角色")
		}
	}
}

func TestFinalReportRequiresEnd(t *testing.T) {
	s, _ := NewSession(testNames(), 25)
	s.Start()
	if _, err := s.BuildFinalReport(); err == nil {
		t.Fatalf("對局未結束時不應產生終局報告")
	}
}

func TestResolutionFaultDoesNotStopLoop(t *testing.T) {
	s, _ := NewSession(testNames(), 27)
	s.Start()
	s.Phase = PhaseDayFinal
	s.accused = 99 // 故意塞入壞狀態，模擬結算途中的意外
	tr, err := s.AdvancePhase()
	if err != nil {
		t.Fatalf("結算錯誤不應折斷推進：%v", err)
	}
	if tr.Fault == nil || !errors.Is(tr.Fault, ErrResolutionFault) {
		t.Fatalf("應回報內部結算錯誤，實際 %v", tr.Fault)
	}
	if tr.To != PhaseNight {
		t.Fatalf("錯誤後循環應繼續前進，實際 %s", tr.To)
	}
	if s.Status != StatusActive {
		t.Fatalf("單一結算錯誤不應終止對局")
	}
}

func TestQueueRejectedOutsideNight(t *testing.T) {
	s, _ := NewSession(testNames(), 29)
	act := NightAction{Actor: 0, Target: 1, Kind: ActionKill}
	if err := s.QueueAction(act); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("開局前行動應被拒收，實際 %v", err)
	}
	s.Start()
	if err := s.QueueAction(act); err != nil {
		t.Fatalf("夜晚行動應被接受：%v", err)
	}
	if s.PendingActionCount() != 1 {
		t.Fatalf("佇列應有 1 筆行動，實際 %d", s.PendingActionCount())
	}
	if err := s.QueueAction(NightAction{Actor: 99, Target: 1, Kind: ActionKill}); !errors.Is(err, ErrUnknownSeat) {
		t.Fatalf("不存在的行動者應被拒收，實際 %v", err)
	}
	if err := s.QueueAction(NightAction{Actor: 0, Target: 42, Kind: ActionKill}); !errors.Is(err, ErrUnknownSeat) {
		t.Fatalf("不存在的目標應被拒收，實際 %v", err)
	}
	s.Players[3].Alive = false
	if err := s.QueueAction(NightAction{Actor: 3, Target: 1, Kind: ActionKill}); !errors.Is(err, ErrDeadSeat) {
		t.Fatalf("死者的行動應被拒收，實際 %v", err)
	}

	tr, _ := s.AdvancePhase()
	if tr.To != PhaseDayDiscuss {
		t.Fatalf("夜晚結束應進入討論階段，實際 %s", tr.To)
	}
	if s.PendingActionCount() != 0 {
		t.Fatalf("入晝後佇列應清空，實際 %d", s.PendingActionCount())
	}
	if err := s.QueueAction(act); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("白天行動應被拒收，實際 %v", err)
	}
}

func TestSnapshotsGateRoleDisclosure(t *testing.T) {
	s, _ := NewSession(testNames(), 31)
	rebuildRoster(s, map[int]Role{
		0:  RoleGodfather,
		1:  RoleMafioso,
		10: RoleSpy,
		5:  RoleCultLeader,
	})
	s.Start()

	public := s.BuildPublicSnapshot()
	if len(public.Seats) != SeatCount {
		t.Fatalf("公開快照應含 %d 個座位，實際 %d", SeatCount, len(public.Seats))
	}
	for _, seat := range public.Seats {
		if seat.Role != "" || seat.Faction != "" {
			t.Fatalf("未揭露的座位不應洩漏角色或陣營")
		}
	}
	if public.Phase != PhaseNight || public.Day != 1 {
		t.Fatalf("快照應反映當前階段，實際 %s 第 %d 天", public.Phase, public.Day)
	}

	private, err := s.BuildPrivateSnapshot(1)
	if err != nil {
		t.Fatalf("私人快照失敗：%v", err)
	}
	if private.Role != RoleMafioso || private.FactionName != "黑手黨陣營" {
		t.Fatalf("私人快照應帶上自身角色與陣營")
	}
	var sawGodfather, sawSpy bool
	for _, m := range private.Mates {
		if m.Seat == 0 {
			sawGodfather = true
		}
		if m.Seat == 10 {
			sawSpy = true
		}
	}
	if !sawGodfather {
		t.Fatalf("黨徒應看得到教父")
	}
	if sawSpy {
		t.Fatalf("未接頭的間諜不應出現在黨徒的名單上")
	}

	townView, _ := s.BuildPrivateSnapshot(4)
	if len(townView.Mates) != 0 {
		t.Fatalf("市民不應有陣營名單")
	}

	if _, err := s.BuildPrivateSnapshot(99); err == nil {
		t.Fatalf("不存在的座位不應產生快照")
	}
}

func TestFactionMatesVisibilityRules(t *testing.T) {
	s, _ := NewSession(testNames(), 33)
	rebuildRoster(s, map[int]Role{
		0:  RoleGodfather,
		1:  RoleMafioso,
		10: RoleSpy,
		5:  RoleCultLeader,
		6:  RoleFanatic,
		7:  RoleAcolyte,
	})
	s.Start()

	leaderView, _ := s.FactionMates(0)
	if !mateListed(leaderView, 10) {
		t.Fatalf("教父應看得到尚未接頭的間諜")
	}
	spyView, _ := s.FactionMates(10)
	if !mateListed(spyView, 0) || !mateListed(spyView, 1) {
		t.Fatalf("間諜應看得到整個黑手黨")
	}
	mafiosoView, _ := s.FactionMates(1)
	if mateListed(mafiosoView, 10) {
		t.Fatalf("一般黨徒不應看到未接頭的間諜")
	}

	cultLeaderView, _ := s.FactionMates(5)
	if !mateListed(cultLeaderView, 6) {
		t.Fatalf("教主應看得到尚未接頭的狂信徒")
	}
	acolyteView, _ := s.FactionMates(7)
	if mateListed(acolyteView, 6) {
		t.Fatalf("信徒不應看到未接頭的狂信徒")
	}
	if !mateListed(acolyteView, 5) {
		t.Fatalf("信徒應看得到教主")
	}

	townMates, _ := s.FactionMates(3)
	if townMates != nil {
		t.Fatalf("市民不應有組織名單")
	}
}
