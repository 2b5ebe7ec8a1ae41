package game

import "testing"

func TestDoctorProtectionBlocksOrdinaryKill(t *testing.T) {
	s, _ := NewSession(testNames(), 41)
	rebuildRoster(s, map[int]Role{0: RoleMafioso, 2: RoleDoctor})
	s.Start()
	s.QueueAction(NightAction{Actor: 2, Target: 1, Kind: ActionHeal, DeclaredRole: RoleDoctor})
	s.QueueAction(NightAction{Actor: 0, Target: 1, Kind: ActionKill, DeclaredRole: RoleMafioso})

	tr, err := s.AdvancePhase()
	if err != nil {
		t.Fatalf("推進失敗：%v", err)
	}
	out := tr.Night
	if out == nil {
		t.Fatalf("夜晚結算結果不應為空")
	}
	if len(out.Deaths) != 0 {
		t.Fatalf("受醫生保護的目標不應死亡，實際死了 %d 人", len(out.Deaths))
	}
	if !s.Players[1].Alive {
		t.Fatalf("1 號應存活")
	}
	if !hasNotice(out, 1, "醫生") {
		t.Fatalf("目標應收到獲救通知")
	}
	if !hasAnnouncement(out.Announcements, "平安無事") {
		t.Fatalf("無人死亡的夜晚應宣告平安")
	}
}

func TestBypassKillIgnoresAllProtection(t *testing.T) {
	s, _ := NewSession(testNames(), 43)
	rebuildRoster(s, map[int]Role{0: RoleBeastman, 2: RoleDoctor, 3: RoleBodyguard})
	s.Start()
	s.QueueAction(NightAction{Actor: 2, Target: 1, Kind: ActionHeal, DeclaredRole: RoleDoctor})
	s.QueueAction(NightAction{Actor: 3, Target: 1, Kind: ActionGuard, DeclaredRole: RoleBodyguard})
	s.QueueAction(NightAction{Actor: 0, Target: 1, Kind: ActionKill, DeclaredRole: RoleBeastman})

	tr, _ := s.AdvancePhase()
	out := tr.Night
	if len(out.Deaths) != 1 || out.Deaths[0].Seat != 1 {
		t.Fatalf("穿透攻擊應無視保護擊殺 1 號")
	}
	if s.Players[1].Alive {
		t.Fatalf("1 號應死亡")
	}
	if !s.Players[3].Alive {
		t.Fatalf("穿透攻擊之下保鑣不應替死")
	}
	if !s.Players[1].Revealed {
		t.Fatalf("死者身分應揭露")
	}
	if !hasAnnouncement(out.Announcements, "遇害身亡") {
		t.Fatalf("應有死亡公告")
	}
}

func TestSoldierVestConsumedOnce(t *testing.T) {
	s, _ := NewSession(testNames(), 45)
	rebuildRoster(s, map[int]Role{0: RoleMafioso, 1: RoleSoldier})
	s.Start()
	s.QueueAction(NightAction{Actor: 0, Target: 1, Kind: ActionKill, DeclaredRole: RoleMafioso})
	tr, _ := s.AdvancePhase()
	if !s.Players[1].Alive {
		t.Fatalf("士兵應擋下第一次攻擊")
	}
	if !s.Players[1].ProtectionUsed {
		t.Fatalf("防護應標記為已消耗")
	}
	if !hasNotice(tr.Night, 1, "防彈背心") {
		t.Fatalf("士兵應收到防護消耗通知")
	}

	// 兩刀同夜，防護只擋第一刀
	s2, _ := NewSession(testNames(), 47)
	rebuildRoster(s2, map[int]Role{0: RoleMafioso, 3: RoleMafioso, 1: RoleSoldier})
	s2.Start()
	s2.QueueAction(NightAction{Actor: 0, Target: 1, Kind: ActionKill, DeclaredRole: RoleMafioso})
	s2.QueueAction(NightAction{Actor: 3, Target: 1, Kind: ActionKill, DeclaredRole: RoleMafioso})
	tr2, _ := s2.AdvancePhase()
	if s2.Players[1].Alive {
		t.Fatalf("第二刀不應再被防護擋下")
	}
	if len(tr2.Night.Deaths) != 1 || tr2.Night.Deaths[0].Seat != 1 {
		t.Fatalf("士兵應只留下一筆死亡紀錄")
	}

	// 穿透攻擊不消耗防護，直接致命
	s3, _ := NewSession(testNames(), 49)
	rebuildRoster(s3, map[int]Role{0: RoleBeastman, 1: RoleSoldier})
	s3.Start()
	s3.QueueAction(NightAction{Actor: 0, Target: 1, Kind: ActionBeastKill, DeclaredRole: RoleBeastman})
	s3.AdvancePhase()
	if s3.Players[1].Alive {
		t.Fatalf("穿透攻擊應直接擊殺士兵")
	}
	if s3.Players[1].ProtectionUsed {
		t.Fatalf("穿透攻擊不應消耗防護")
	}
}

func TestBodyguardDiesInPlace(t *testing.T) {
	s, _ := NewSession(testNames(), 51)
	rebuildRoster(s, map[int]Role{0: RoleMafioso, 2: RoleBodyguard})
	s.Start()
	s.QueueAction(NightAction{Actor: 2, Target: 1, Kind: ActionGuard, DeclaredRole: RoleBodyguard})
	s.QueueAction(NightAction{Actor: 0, Target: 1, Kind: ActionKill, DeclaredRole: RoleMafioso})
	tr, _ := s.AdvancePhase()
	if !s.Players[1].Alive {
		t.Fatalf("被守護的目標應存活")
	}
	if s.Players[2].Alive {
		t.Fatalf("保鑣應替目標赴死")
	}
	if len(tr.Night.Deaths) != 1 || tr.Night.Deaths[0].Seat != 2 {
		t.Fatalf("死亡紀錄應是保鑣")
	}
	if !hasNotice(tr.Night, 1, "保鑣") {
		t.Fatalf("目標應得知保鑣替死")
	}
}

func TestLoverRedirectHappensOnceAndNeverChains(t *testing.T) {
	s, _ := NewSession(testNames(), 53)
	rebuildRoster(s, map[int]Role{0: RoleMafioso})
	s.lovers[1] = 2
	s.lovers[2] = 1
	s.Start()
	s.QueueAction(NightAction{Actor: 0, Target: 1, Kind: ActionKill, DeclaredRole: RoleMafioso})
	tr, _ := s.AdvancePhase()
	if !s.Players[1].Alive {
		t.Fatalf("原目標應因紅線轉移而存活")
	}
	if s.Players[2].Alive {
		t.Fatalf("愛人應替原目標承受襲擊")
	}
	if len(tr.Night.Deaths) != 1 || tr.Night.Deaths[0].Seat != 2 {
		t.Fatalf("死亡紀錄應指向愛人")
	}
	if !hasNotice(tr.Night, 1, "替你承受") {
		t.Fatalf("原目標應收到轉移通知")
	}

	// 愛人已死時不再轉移
	s2, _ := NewSession(testNames(), 55)
	rebuildRoster(s2, map[int]Role{0: RoleMafioso})
	s2.lovers[1] = 2
	s2.lovers[2] = 1
	s2.Players[2].Alive = false
	s2.Start()
	s2.QueueAction(NightAction{Actor: 0, Target: 1, Kind: ActionKill, DeclaredRole: RoleMafioso})
	s2.AdvancePhase()
	if s2.Players[1].Alive {
		t.Fatalf("愛人已死時攻擊應落在原目標身上")
	}
}

func TestJailedTargetSurvivesQueuedKill(t *testing.T) {
	s, _ := NewSession(testNames(), 57)
	rebuildRoster(s, map[int]Role{0: RoleMafioso, 3: RoleJailor, 7: RoleDetective})
	s.Start()
	s.QueueAction(NightAction{Actor: 3, Target: 7, Kind: ActionJail, DeclaredRole: RoleJailor})
	s.QueueAction(NightAction{Actor: 0, Target: 7, Kind: ActionKill, DeclaredRole: RoleMafioso})
	tr, _ := s.AdvancePhase()
	out := tr.Night
	if !s.Players[7].Alive {
		t.Fatalf("被關押者應免於襲擊")
	}
	if len(out.Deaths) != 0 {
		t.Fatalf("不應有任何死亡公告，實際 %d", len(out.Deaths))
	}
	if !hasNotice(out, 0, "撲了空") {
		t.Fatalf("攻擊者應被告知襲擊落空")
	}
	if !hasNotice(out, 7, "牢房") {
		t.Fatalf("被關押者應得知牢房救了自己")
	}
	if !hasNotice(out, 7, "無法行動") {
		t.Fatalf("被關押者應收到關押通知")
	}
}

func TestJailedActorLosesAction(t *testing.T) {
	s, _ := NewSession(testNames(), 59)
	rebuildRoster(s, map[int]Role{0: RoleMafioso, 3: RoleJailor})
	s.Start()
	s.QueueAction(NightAction{Actor: 3, Target: 0, Kind: ActionJail, DeclaredRole: RoleJailor})
	s.QueueAction(NightAction{Actor: 0, Target: 4, Kind: ActionKill, DeclaredRole: RoleMafioso})
	s.AdvancePhase()
	if !s.Players[4].Alive {
		t.Fatalf("行動者被關押時其攻擊不應發生")
	}
}

func TestJailorExecutionRevokesPrivilegeOnTownKill(t *testing.T) {
	s, _ := NewSession(testNames(), 61)
	rebuildRoster(s, map[int]Role{0: RoleMafioso, 1: RoleMafioso, 3: RoleJailor, 7: RoleDetective})
	s.Start()
	s.QueueAction(NightAction{Actor: 3, Target: 7, Kind: ActionExecute, DeclaredRole: RoleJailor})
	tr, _ := s.AdvancePhase()
	out := tr.Night
	if s.Players[7].Alive {
		t.Fatalf("被處決者應死亡")
	}
	if !s.Players[7].Revealed {
		t.Fatalf("獄中處決應揭露身分")
	}
	if !hasAnnouncement(out.Announcements, "獄中被處決") {
		t.Fatalf("應有處決公告")
	}
	if s.Players[3].ExecuteLeft {
		t.Fatalf("錯殺市民後處決權應被撤銷")
	}
	if !hasNotice(out, 3, "永久撤銷") {
		t.Fatalf("獄卒應收到撤權通知")
	}

	// 處決權已失，再次處決只剩關押效果
	for s.Phase != PhaseNight {
		if _, err := s.AdvancePhase(); err != nil {
			t.Fatalf("推進失敗：%v", err)
		}
	}
	s.QueueAction(NightAction{Actor: 3, Target: 8, Kind: ActionExecute, DeclaredRole: RoleJailor})
	tr2, _ := s.AdvancePhase()
	if !s.Players[8].Alive {
		t.Fatalf("失去處決權後目標應只被關押")
	}
	if !hasNotice(tr2.Night, 3, "失去處決權") {
		t.Fatalf("獄卒應被告知只能關押")
	}
	if !hasNotice(tr2.Night, 8, "無法行動") {
		t.Fatalf("目標應收到關押通知")
	}

	// 處決黑手黨不折損處決權
	s2, _ := NewSession(testNames(), 63)
	rebuildRoster(s2, map[int]Role{0: RoleMafioso, 1: RoleMafioso, 3: RoleJailor})
	s2.Start()
	s2.QueueAction(NightAction{Actor: 3, Target: 0, Kind: ActionExecute, DeclaredRole: RoleJailor})
	s2.AdvancePhase()
	if s2.Players[0].Alive {
		t.Fatalf("黑手黨應被處決")
	}
	if !s2.Players[3].ExecuteLeft {
		t.Fatalf("處決有罪者不應折損處決權")
	}
}

func TestVigilanteShotFailsOnNonMafia(t *testing.T) {
	s, _ := NewSession(testNames(), 65)
	rebuildRoster(s, map[int]Role{0: RoleMafioso, 1: RoleVigilante, 4: RoleDetective})
	s.Start()
	s.QueueAction(NightAction{Actor: 1, Target: 4, Kind: ActionShoot, DeclaredRole: RoleVigilante})
	tr, _ := s.AdvancePhase()
	if !s.Players[4].Alive {
		t.Fatalf("義警誤擊非黑手黨時不應造成死亡")
	}
	if len(tr.Night.Deaths) != 0 {
		t.Fatalf("不應有死亡公告")
	}
	if !hasNotice(tr.Night, 1, "子彈落空") {
		t.Fatalf("義警應收到失手通知")
	}
}

func TestCultConversionRewritesRoleAndImmunityHolds(t *testing.T) {
	s, _ := NewSession(testNames(), 67)
	rebuildRoster(s, map[int]Role{0: RoleGodfather, 1: RoleMafioso, 5: RoleCultLeader, 6: RoleDetective})
	s.Start()
	s.QueueAction(NightAction{Actor: 5, Target: 6, Kind: ActionConvert, DeclaredRole: RoleCultLeader})
	s.QueueAction(NightAction{Actor: 5, Target: 0, Kind: ActionConvert, DeclaredRole: RoleCultLeader})
	tr, _ := s.AdvancePhase()
	out := tr.Night

	converted := s.Players[6]
	if converted.Role != RoleAcolyte || converted.Faction != FactionCult {
		t.Fatalf("被吸收者的角色與陣營應改寫，實際 %s/%s", converted.Role, converted.Faction)
	}
	if !converted.Converted {
		t.Fatalf("被吸收者應帶上入教標記")
	}
	if len(out.Converted) != 1 || out.Converted[0] != 6 {
		t.Fatalf("入教名單應只含 6 號")
	}
	if !out.VisibilityChanged {
		t.Fatalf("吸收應觸發名單重算")
	}
	if !hasNotice(out, 6, "被邪教吸收") {
		t.Fatalf("被吸收者應收到通知")
	}

	boss := s.Players[0]
	if boss.Role != RoleGodfather || boss.Faction != FactionMafia {
		t.Fatalf("教父應免疫吸收")
	}
	if !hasNotice(out, 5, "意志堅定") {
		t.Fatalf("教主應被告知吸收失敗")
	}

	mates, _ := s.FactionMates(5)
	if !mateListed(mates, 6) {
		t.Fatalf("新信徒應立即出現在教團名單")
	}
}

func TestContactMatchesLeaderAndExposesHidden(t *testing.T) {
	s, _ := NewSession(testNames(), 69)
	rebuildRoster(s, map[int]Role{0: RoleGodfather, 1: RoleMafioso, 10: RoleSpy})
	s.Start()
	s.QueueAction(NightAction{Actor: 10, Target: 0, Kind: ActionContact, DeclaredRole: RoleSpy})
	tr, _ := s.AdvancePhase()
	out := tr.Night
	if !s.Players[10].Contacted || !s.Players[0].Contacted {
		t.Fatalf("接頭成功後雙方都應標記")
	}
	if !out.VisibilityChanged {
		t.Fatalf("接頭成功應觸發名單重算")
	}
	if len(out.Contacts) != 1 || out.Contacts[0] != 10 {
		t.Fatalf("接頭名單應只含 10 號")
	}
	if !hasNotice(out, 10, "接上了頭") || !hasNotice(out, 0, "接上頭") {
		t.Fatalf("雙方都應收到接頭通知")
	}
	mates, _ := s.FactionMates(1)
	if !mateListed(mates, 10) {
		t.Fatalf("接頭後一般黨徒應看得到間諜")
	}

	// 找錯同夥只得到線索，不改動狀態
	s2, _ := NewSession(testNames(), 71)
	rebuildRoster(s2, map[int]Role{0: RoleGodfather, 1: RoleMafioso, 10: RoleSpy})
	s2.Start()
	s2.QueueAction(NightAction{Actor: 10, Target: 1, Kind: ActionContact, DeclaredRole: RoleSpy})
	tr2, _ := s2.AdvancePhase()
	if s2.Players[10].Contacted {
		t.Fatalf("找錯人不應標記接頭")
	}
	if !hasNotice(tr2.Night, 10, "同屬一個陣營") {
		t.Fatalf("同陣營誤接應回報線索")
	}

	// 與組織無關的目標
	s3, _ := NewSession(testNames(), 73)
	rebuildRoster(s3, map[int]Role{0: RoleGodfather, 1: RoleMafioso, 10: RoleSpy})
	s3.Start()
	s3.QueueAction(NightAction{Actor: 10, Target: 4, Kind: ActionContact, DeclaredRole: RoleSpy})
	tr3, _ := s3.AdvancePhase()
	if !hasNotice(tr3.Night, 10, "毫無瓜葛") {
		t.Fatalf("異陣營目標應回報毫無瓜葛")
	}
}

func TestJanitorConcealsBody(t *testing.T) {
	s, _ := NewSession(testNames(), 75)
	rebuildRoster(s, map[int]Role{0: RoleGodfather, 1: RoleJanitor, 4: RoleDetective})
	s.Start()
	s.QueueAction(NightAction{Actor: 0, Target: 4, Kind: ActionKill, DeclaredRole: RoleGodfather})
	s.QueueAction(NightAction{Actor: 1, Target: 4, Kind: ActionClean, DeclaredRole: RoleJanitor})
	tr, _ := s.AdvancePhase()
	out := tr.Night

	victim := s.Players[4]
	if victim.Alive {
		t.Fatalf("目標應死亡")
	}
	if victim.Revealed {
		t.Fatalf("被清理的屍體不應揭露身分")
	}
	if !victim.BodyConcealed {
		t.Fatalf("屍體應標記為被清理")
	}
	if len(out.Deaths) != 1 {
		t.Fatalf("應有一筆死亡紀錄，實際 %d", len(out.Deaths))
	}
	record := out.Deaths[0]
	if !record.Concealed || record.Role != "" {
		t.Fatalf("死亡紀錄不應帶出角色，實際 %+v", record)
	}
	if !hasAnnouncement(out.Announcements, "看不出身分") {
		t.Fatalf("公告應說明屍體無法辨識")
	}
	if !hasNotice(out, 1, "死者是") {
		t.Fatalf("清道夫應得知死者身分")
	}

	public := s.BuildPublicSnapshot()
	for _, seat := range public.Seats {
		if seat.Seat == 4 {
			if seat.Role != "" || seat.Faction != "" {
				t.Fatalf("公開快照不應洩漏被清理者的身分")
			}
			if !seat.Concealed {
				t.Fatalf("公開快照應標記屍體被清理")
			}
		}
	}
}

func TestCupidPairingOnceOnly(t *testing.T) {
	s, _ := NewSession(testNames(), 77)
	rebuildRoster(s, map[int]Role{0: RoleMafioso, 8: RoleCupid})
	s.Start()
	s.QueueAction(NightAction{Actor: 8, Target: 1, Kind: ActionPair, DeclaredRole: RoleCupid})
	s.QueueAction(NightAction{Actor: 8, Target: 2, Kind: ActionPair, DeclaredRole: RoleCupid})
	tr, _ := s.AdvancePhase()
	if lover, ok := s.Lover(1); !ok || lover != 2 {
		t.Fatalf("1 號的愛人應為 2 號")
	}
	if lover, ok := s.Lover(2); !ok || lover != 1 {
		t.Fatalf("2 號的愛人應為 1 號")
	}
	if !hasNotice(tr.Night, 1, "紅線") || !hasNotice(tr.Night, 2, "紅線") {
		t.Fatalf("兩位愛人都應收到通知")
	}

	// 紅線終身只有一次
	for s.Phase != PhaseNight {
		s.AdvancePhase()
	}
	s.QueueAction(NightAction{Actor: 8, Target: 3, Kind: ActionPair, DeclaredRole: RoleCupid})
	tr2, _ := s.AdvancePhase()
	if _, ok := s.Lover(3); ok {
		t.Fatalf("第二夜的牽線不應生效")
	}
	if !hasNotice(tr2.Night, 8, "已經繫過") {
		t.Fatalf("邱比特應被告知紅線已用掉")
	}

	// 只出一個目標時與自己相繫
	s2, _ := NewSession(testNames(), 79)
	rebuildRoster(s2, map[int]Role{0: RoleMafioso, 8: RoleCupid})
	s2.Start()
	s2.QueueAction(NightAction{Actor: 8, Target: 2, Kind: ActionPair, DeclaredRole: RoleCupid})
	s2.AdvancePhase()
	if lover, ok := s2.Lover(8); !ok || lover != 2 {
		t.Fatalf("單一目標時邱比特應與目標相繫")
	}
}
