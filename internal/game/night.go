package game

import "fmt"

// DeathRecord 描述一名在結算中喪命的玩家；被清理的屍體不附身分
type DeathRecord struct {
	Seat      int     `json:"seat"`
	Name      string  `json:"name"`
	Role      Role    `json:"role,omitempty"`
	RoleName  string  `json:"roleName,omitempty"`
	Faction   Faction `json:"faction,omitempty"`
	Concealed bool    `json:"concealed"`
}

// NightOutcome 彙整一夜結算的全部效果
type NightOutcome struct {
	Night         int
	Deaths        []DeathRecord
	Converted     []int
	Contacts      []int
	Announcements []string
	Notices       map[int][]string

	// VisibilityChanged 表示接頭或吸收改變了陣營名單，外層應重新推送
	VisibilityChanged bool
}

func (out *NightOutcome) notify(seat int, message string) {
	out.Notices[seat] = append(out.Notices[seat], message)
}

// resolveNight 依固定順序消化當夜佇列：
// 關押與處決 → 接頭 → 牽線 → 吸收 → 保護彙整 → 殺擊判定 → 揭曉。
// 每個段落完整套用後才進入下一段；被關押者整夜不可行動也不可被指定。
func (s *Session) resolveNight() *NightOutcome {
	out := &NightOutcome{
		Night:   s.Day,
		Notices: make(map[int][]string),
	}

	contained := s.applyContainment(out)
	s.applyContacts(contained, out)
	s.applyPairings(contained, out)
	s.applyConversions(contained, out)
	doctorSet, guardSet := s.collectProtections(contained, out)
	deaths := s.resolveKills(contained, doctorSet, guardSet, out)
	s.revealDeaths(contained, deaths, out)

	if len(out.Deaths) == 0 {
		announcement := "天亮了，昨夜平安無事"
		out.Announcements = append(out.Announcements, announcement)
		s.addLog(announcement)
	}
	return out
}

// applyContainment 處理關押與處決。處決立即生效且必定揭露身分，
// 錯殺市民將永久撤銷處決權；失去處決權後的處決只剩關押效果。
func (s *Session) applyContainment(out *NightOutcome) map[int]struct{} {
	contained := make(map[int]struct{})
	for _, act := range s.queue {
		if act.Kind != ActionJail && act.Kind != ActionExecute {
			continue
		}
		jailor := s.Players[act.Actor]
		target := s.Players[act.Target]
		if !target.Alive {
			out.notify(jailor.Seat, fmt.Sprintf("%s 已經死亡，關押落空", target.Describe()))
			continue
		}
		if _, dup := contained[target.Seat]; !dup {
			contained[target.Seat] = struct{}{}
			out.notify(target.Seat, "你昨晚被關進牢裡，整夜無法行動")
		}

		if act.Kind != ActionExecute {
			continue
		}
		if !jailor.ExecuteLeft {
			out.notify(jailor.Seat, "你已失去處決權，只能關押目標")
			continue
		}
		target.Alive = false
		target.Revealed = true
		out.Deaths = append(out.Deaths, DeathRecord{
			Seat: target.Seat, Name: target.Name,
			Role: target.Role, RoleName: target.Role.String(), Faction: target.Faction,
		})
		announcement := fmt.Sprintf("%s 在獄中被處決，身分是%s（%s）", target.Describe(), target.Role, target.Faction)
		out.Announcements = append(out.Announcements, announcement)
		s.addLog(announcement)
		if target.Faction == FactionTown {
			jailor.ExecuteLeft = false
			out.notify(jailor.Seat, "你處決了無辜的市民，處決權被永久撤銷")
		}
	}
	return contained
}

// applyContacts 處理隱藏角色的接頭。找對首領時雙方互相知曉並觸發
// 名單重算；找錯人但同陣營時只回報線索，不改動任何狀態。
func (s *Session) applyContacts(contained map[int]struct{}, out *NightOutcome) {
	for _, act := range s.queue {
		if act.Kind != ActionContact {
			continue
		}
		if _, jailed := contained[act.Actor]; jailed {
			continue
		}
		actor := s.Players[act.Actor]
		target := s.Players[act.Target]
		if _, jailed := contained[target.Seat]; jailed {
			out.notify(actor.Seat, fmt.Sprintf("%s 昨晚不知去向，接頭失敗", target.Describe()))
			continue
		}
		if !target.Alive {
			out.notify(actor.Seat, fmt.Sprintf("%s 已經死亡，無從接頭", target.Describe()))
			continue
		}

		leader, hasLeader := FactionLeader(actor.Faction)
		if hasLeader && target.Faction == actor.Faction && target.Role == leader {
			actor.Contacted = true
			target.Contacted = true
			out.Contacts = append(out.Contacts, actor.Seat)
			out.VisibilityChanged = true
			out.notify(actor.Seat, fmt.Sprintf("你與%s接上了頭，從今以後彼此知曉身分", leader))
			out.notify(target.Seat, fmt.Sprintf("%s 是潛伏在陣營裡的%s，已與你接上頭", actor.Describe(), actor.Role))
			continue
		}
		if target.Faction == actor.Faction {
			out.notify(actor.Seat, fmt.Sprintf("%s 似乎與你同屬一個陣營，但不是你要找的人", target.Describe()))
			continue
		}
		out.notify(actor.Seat, fmt.Sprintf("你試探了 %s，對方與你的組織毫無瓜葛", target.Describe()))
	}
}

// applyPairings 處理邱比特的牽線。同一行動者出兩筆即撮合兩個目標，
// 只出一筆則把自己與目標綁在一起；紅線一經繫上便終身不可再動。
func (s *Session) applyPairings(contained map[int]struct{}, out *NightOutcome) {
	targetsByActor := make(map[int][]int)
	order := make([]int, 0)
	for _, act := range s.queue {
		if act.Kind != ActionPair {
			continue
		}
		if _, jailed := contained[act.Actor]; jailed {
			continue
		}
		target := s.Players[act.Target]
		if _, jailed := contained[target.Seat]; jailed {
			out.notify(act.Actor, fmt.Sprintf("%s 昨晚被關押，紅線無法繫上", target.Describe()))
			continue
		}
		if !target.Alive {
			out.notify(act.Actor, fmt.Sprintf("%s 已經死亡，紅線無法繫上", target.Describe()))
			continue
		}
		if _, seen := targetsByActor[act.Actor]; !seen {
			order = append(order, act.Actor)
		}
		targetsByActor[act.Actor] = append(targetsByActor[act.Actor], act.Target)
	}

	for _, actorSeat := range order {
		if len(s.lovers) > 0 {
			out.notify(actorSeat, "紅線已經繫過了，這一夜的牽線沒有效果")
			continue
		}
		targets := targetsByActor[actorSeat]
		var a, b int
		if len(targets) >= 2 {
			a, b = targets[0], targets[1]
		} else {
			a, b = actorSeat, targets[0]
		}
		if a == b {
			out.notify(actorSeat, "紅線不能繫在同一個人身上")
			continue
		}
		s.lovers[a] = b
		s.lovers[b] = a
		first, second := s.Players[a], s.Players[b]
		out.notify(a, fmt.Sprintf("邱比特的紅線把你和 %s 繫在一起，生死與共", second.Describe()))
		out.notify(b, fmt.Sprintf("邱比特的紅線把你和 %s 繫在一起，生死與共", first.Describe()))
		if actorSeat != a && actorSeat != b {
			out.notify(actorSeat, fmt.Sprintf("你把 %s 與 %s 繫在了一起", first.Describe(), second.Describe()))
		}
	}
}

// applyConversions 處理邪教吸收。目標必須在世且非免疫；
// 成功後角色改寫為信徒、陣營改為邪教，原角色不再保留。
func (s *Session) applyConversions(contained map[int]struct{}, out *NightOutcome) {
	for _, act := range s.queue {
		if act.Kind != ActionConvert {
			continue
		}
		if _, jailed := contained[act.Actor]; jailed {
			continue
		}
		target := s.Players[act.Target]
		if _, jailed := contained[target.Seat]; jailed {
			out.notify(act.Actor, fmt.Sprintf("%s 昨晚被關押，儀式無法進行", target.Describe()))
			continue
		}
		if !target.Alive {
			out.notify(act.Actor, fmt.Sprintf("%s 已經死亡，無法吸收", target.Describe()))
			continue
		}
		if target.Faction == FactionCult {
			out.notify(act.Actor, fmt.Sprintf("%s 早已是教團的一員", target.Describe()))
			continue
		}
		if IsConversionImmune(target.Role) {
			out.notify(act.Actor, fmt.Sprintf("%s 意志堅定，吸收失敗", target.Describe()))
			continue
		}
		target.Role = RoleAcolyte
		target.Faction = FactionCult
		target.Converted = true
		out.Converted = append(out.Converted, target.Seat)
		out.VisibilityChanged = true
		out.notify(target.Seat, "你在深夜被邪教吸收，從此成為信徒的一員")
		out.notify(act.Actor, fmt.Sprintf("%s 已被吸收入教", target.Describe()))
	}
}

// collectProtections 彙整醫生救治與保鑣守護名單。
// 同類保護對同一目標僅登記一次，但兩類可以同時存在。
func (s *Session) collectProtections(contained map[int]struct{}, out *NightOutcome) (map[int]struct{}, map[int]int) {
	doctorSet := make(map[int]struct{})
	guardSet := make(map[int]int)
	for _, act := range s.queue {
		if act.Kind != ActionHeal && act.Kind != ActionGuard {
			continue
		}
		if _, jailed := contained[act.Actor]; jailed {
			continue
		}
		target := s.Players[act.Target]
		if _, jailed := contained[target.Seat]; jailed {
			out.notify(act.Actor, fmt.Sprintf("%s 昨晚被關進牢裡，你的保護撲了空", target.Describe()))
			continue
		}
		if !target.Alive {
			out.notify(act.Actor, fmt.Sprintf("%s 已經死亡，保護沒有意義", target.Describe()))
			continue
		}
		switch act.Kind {
		case ActionHeal:
			doctorSet[target.Seat] = struct{}{}
		case ActionGuard:
			if _, dup := guardSet[target.Seat]; !dup {
				guardSet[target.Seat] = act.Actor
			}
		}
	}
	return doctorSet, guardSet
}

// resolveKills 逐筆判定殺擊，依序短路：關押攔截、義警槍口的陣營檢定、
// 紅線替死、保鑣捨身、士兵防護、醫生救治，全數未擋下才真正喪命。
// 穿透攻擊（獸人出手或獸襲）無視保鑣、士兵與醫生三種保護。
func (s *Session) resolveKills(contained map[int]struct{}, doctorSet map[int]struct{}, guardSet map[int]int, out *NightOutcome) []*Participant {
	deaths := make([]*Participant, 0, 4)
	for _, act := range s.queue {
		if !isKillKind(act.Kind) {
			continue
		}
		if _, jailed := contained[act.Actor]; jailed {
			continue
		}
		bypass := act.isBypass()
		original := s.Players[act.Target]

		// 義警的子彈只對黑手黨有效，以原始目標判定，與保護無關
		if act.Kind == ActionShoot && original.Faction != FactionMafia {
			out.notify(act.Actor, fmt.Sprintf("你朝 %s 開了槍，但對方不是黑手黨，子彈落空", original.Describe()))
			continue
		}

		if _, jailed := contained[original.Seat]; jailed {
			out.notify(act.Actor, fmt.Sprintf("%s 昨晚被關押，你的攻擊撲了空", original.Describe()))
			out.notify(original.Seat, "昨夜有人想取你性命，牢房反倒救了你")
			continue
		}

		victim := original
		if !victim.Alive {
			out.notify(act.Actor, fmt.Sprintf("你趕到時 %s 已經斷氣", victim.Describe()))
			continue
		}

		// 紅線替死：由在世愛人承受攻擊，僅轉移一次、絕不連鎖
		if loverSeat, ok := s.lovers[victim.Seat]; ok {
			if lover := s.Players[loverSeat]; lover.Alive {
				out.notify(victim.Seat, "你的愛人昨夜替你承受了襲擊")
				victim = lover
			}
		}

		if guardSeat, ok := guardSet[victim.Seat]; ok && !bypass {
			guard := s.Players[guardSeat]
			if guard.Alive && guard.Seat != victim.Seat {
				guard.Alive = false
				deaths = append(deaths, guard)
				out.notify(victim.Seat, "保鑣替你擋下了致命的一擊")
				continue
			}
		}

		if victim.Role == RoleSoldier && !victim.ProtectionUsed && !bypass {
			victim.ProtectionUsed = true
			out.notify(victim.Seat, "你的防彈背心替你擋下了這一擊，往後不會再有第二次")
			continue
		}

		if _, healed := doctorSet[victim.Seat]; healed && !bypass {
			out.notify(victim.Seat, "你昨夜遭到襲擊，被醫生從鬼門關前拉了回來")
			continue
		}

		victim.Alive = false
		deaths = append(deaths, victim)
	}
	return deaths
}

// revealDeaths 揭曉當夜死訊。被清理的屍體只公布死亡不公布身分；
// 清理者本人得知死者底細。獄中處決在關押段落已經揭露，不在此列。
func (s *Session) revealDeaths(contained map[int]struct{}, deaths []*Participant, out *NightOutcome) {
	cleaned := make(map[int]struct{})
	cleaners := make(map[int][]int)
	for _, act := range s.queue {
		if act.Kind != ActionClean {
			continue
		}
		if _, jailed := contained[act.Actor]; jailed {
			continue
		}
		if _, jailed := contained[act.Target]; jailed {
			out.notify(act.Actor, fmt.Sprintf("%s 昨晚被關押，你無從下手", s.Players[act.Target].Describe()))
			continue
		}
		cleaned[act.Target] = struct{}{}
		cleaners[act.Target] = append(cleaners[act.Target], act.Actor)
	}

	for _, victim := range deaths {
		if _, ok := cleaned[victim.Seat]; ok {
			victim.BodyConcealed = true
			out.Deaths = append(out.Deaths, DeathRecord{Seat: victim.Seat, Name: victim.Name, Concealed: true})
			announcement := fmt.Sprintf("天亮了，%s 陳屍街頭，屍體被人動過手腳，看不出身分", victim.Describe())
			out.Announcements = append(out.Announcements, announcement)
			s.addLog(announcement)
			for _, cleaner := range cleaners[victim.Seat] {
				out.notify(cleaner, fmt.Sprintf("你清理了 %s 的屍體，死者是%s（%s）", victim.Describe(), victim.Role, victim.Faction))
			}
			continue
		}
		victim.Revealed = true
		out.Deaths = append(out.Deaths, DeathRecord{
			Seat: victim.Seat, Name: victim.Name,
			Role: victim.Role, RoleName: victim.Role.String(), Faction: victim.Faction,
		})
		announcement := fmt.Sprintf("天亮了，%s 遇害身亡，身分是%s（%s）", victim.Describe(), victim.Role, victim.Faction)
		out.Announcements = append(out.Announcements, announcement)
		s.addLog(announcement)
	}
}
