package game

// Faction 表示陣營歸屬
type Faction string

const (
	FactionTown    Faction = "Town"
	FactionMafia   Faction = "Mafia"
	FactionCult    Faction = "Cult"
	FactionNeutral Faction = "Neutral"
)

func (f Faction) String() string {
	switch f {
	case FactionTown:
		return "市民陣營"
	case FactionMafia:
		return "黑手黨陣營"
	case FactionCult:
		return "邪教陣營"
	case FactionNeutral:
		return "中立陣營"
	default:
		return "未知陣營"
	}
}

// Role 表示玩家角色，值即為對外傳輸用的英文代號
type Role string

const (
	RoleDoctor       Role = "Doctor"
	RoleDetective    Role = "Detective"
	RoleBodyguard    Role = "Bodyguard"
	RoleVigilante    Role = "Vigilante"
	RoleJailor       Role = "Jailor"
	RoleSoldier      Role = "Soldier"
	RoleCupid        Role = "Cupid"
	RoleGossip       Role = "Gossip"
	RoleLookout      Role = "Lookout"
	RoleMayor        Role = "Mayor"
	RoleInvestigator Role = "Investigator"
	RoleEscort       Role = "Escort"
	RoleMedium       Role = "Medium"

	RoleGodfather   Role = "Godfather"
	RoleMafioso     Role = "Mafioso"
	RoleJanitor     Role = "Janitor"
	RoleSpy         Role = "Spy"
	RoleBeastman    Role = "Beastman"
	RoleBlackmailer Role = "Blackmailer"
	RoleFramer      Role = "Framer"

	RoleCultLeader  Role = "Cult Leader"
	RoleFanatic     Role = "Fanatic"
	RoleInfiltrator Role = "Infiltrator"
	RoleProphet     Role = "Prophet"
	RoleAcolyte     Role = "Acolyte"

	RoleJester        Role = "Jester"
	RoleExecutioner   Role = "Executioner"
	RoleSerialKiller  Role = "Serial Killer"
	RoleArsonist      Role = "Arsonist"
	RoleSurvivor      Role = "Survivor"
	RoleAmnesiac      Role = "Amnesiac"
	RoleWitch         Role = "Witch"
	RoleGuardianAngel Role = "Guardian Angel"
)

// 各陣營的角色池；組牌規則見 setup.go
var (
	townPool = []Role{
		RoleDoctor, RoleDetective, RoleBodyguard, RoleVigilante, RoleJailor,
		RoleSoldier, RoleCupid, RoleGossip, RoleLookout, RoleMayor,
		RoleInvestigator, RoleEscort, RoleMedium,
	}
	mafiaPool = []Role{
		RoleGodfather, RoleMafioso, RoleJanitor, RoleSpy, RoleBeastman,
		RoleBlackmailer, RoleFramer,
	}
	cultPool = []Role{
		RoleCultLeader, RoleFanatic, RoleInfiltrator, RoleProphet, RoleAcolyte,
	}
	neutralPool = []Role{
		RoleJester, RoleExecutioner, RoleSerialKiller, RoleArsonist,
		RoleSurvivor, RoleAmnesiac, RoleWitch, RoleGuardianAngel,
	}
)

var roleNames = map[Role]string{
	RoleDoctor:       "醫生",
	RoleDetective:    "偵探",
	RoleBodyguard:    "保鑣",
	RoleVigilante:    "義警",
	RoleJailor:       "獄卒",
	RoleSoldier:      "士兵",
	RoleCupid:        "邱比特",
	RoleGossip:       "八卦客",
	RoleLookout:      "守望者",
	RoleMayor:        "市長",
	RoleInvestigator: "調查員",
	RoleEscort:       "伴遊",
	RoleMedium:       "靈媒",

	RoleGodfather:   "教父",
	RoleMafioso:     "黑手黨徒",
	RoleJanitor:     "清道夫",
	RoleSpy:         "間諜",
	RoleBeastman:    "獸人",
	RoleBlackmailer: "勒索者",
	RoleFramer:      "栽贓者",

	RoleCultLeader:  "教主",
	RoleFanatic:     "狂信徒",
	RoleInfiltrator: "滲透者",
	RoleProphet:     "先知",
	RoleAcolyte:     "信徒",

	RoleJester:        "小丑",
	RoleExecutioner:   "處刑者",
	RoleSerialKiller:  "連環殺手",
	RoleArsonist:      "縱火犯",
	RoleSurvivor:      "倖存者",
	RoleAmnesiac:      "失憶者",
	RoleWitch:         "女巫",
	RoleGuardianAngel: "守護天使",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "未知角色"
}

// RoleFaction 回傳角色的初始陣營；被吸收入教者陣營另行改寫
func RoleFaction(r Role) Faction {
	switch r {
	case RoleDoctor, RoleDetective, RoleBodyguard, RoleVigilante, RoleJailor,
		RoleSoldier, RoleCupid, RoleGossip, RoleLookout, RoleMayor,
		RoleInvestigator, RoleEscort, RoleMedium:
		return FactionTown
	case RoleGodfather, RoleMafioso, RoleJanitor, RoleSpy, RoleBeastman,
		RoleBlackmailer, RoleFramer:
		return FactionMafia
	case RoleCultLeader, RoleFanatic, RoleInfiltrator, RoleProphet, RoleAcolyte:
		return FactionCult
	default:
		return FactionNeutral
	}
}

// FactionLeader 回傳該陣營的首領角色；市民與中立沒有首領
func FactionLeader(f Faction) (Role, bool) {
	switch f {
	case FactionMafia:
		return RoleGodfather, true
	case FactionCult:
		return RoleCultLeader, true
	default:
		return "", false
	}
}

// IsHiddenRole 判斷角色是否在接頭成功前對同陣營隱藏
func IsHiddenRole(r Role) bool {
	return r == RoleFanatic || r == RoleSpy
}

// IsConversionImmune 判斷角色是否免疫邪教吸收
func IsConversionImmune(r Role) bool {
	switch r {
	case RoleGodfather, RoleBeastman, RoleSoldier:
		return true
	default:
		return false
	}
}

// Participant 表示一個座位上的玩家
type Participant struct {
	Seat    int
	Name    string
	Bot     bool
	Role    Role
	Faction Faction
	Alive   bool

	// Revealed 表示角色已對全場揭露；只會由 false 變 true
	Revealed bool

	// 角色狀態旗標
	ProtectionUsed bool // 士兵的一次性防護是否已消耗
	ExecuteLeft    bool // 獄卒是否仍持有處決權
	Contacted      bool // 隱藏角色是否已與首領接頭
	BodyConcealed  bool // 屍體是否被清理，揭露時隱匿身分
	Converted      bool // 是否曾被邪教吸收
	MarkSeat       int  // 處刑者的獵物座位；-1 表示無
}

func (p *Participant) IsTown() bool {
	return p.Faction == FactionTown
}

func (p *Participant) IsMafia() bool {
	return p.Faction == FactionMafia
}

func (p *Participant) IsCult() bool {
	return p.Faction == FactionCult
}

func (p *Participant) IsNeutral() bool {
	return p.Faction == FactionNeutral
}

// Describe 回傳「N 號 名字」格式的敘述
func (p *Participant) Describe() string {
	return describeSeat(p.Seat, p.Name)
}
