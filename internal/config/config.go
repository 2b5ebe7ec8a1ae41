package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules 是對局規則設定，由伺服器啟動時載入一次，之後唯讀共用。
type Rules struct {
	Phases Phases `yaml:"phases"`
	Bots   Bots   `yaml:"bots"`
}

// Phases 控制各階段的倒數秒數。
type Phases struct {
	NightSeconds   int `yaml:"night_seconds"`
	DiscussSeconds int `yaml:"discuss_seconds"`
	VoteSeconds    int `yaml:"vote_seconds"`
	DefenceSeconds int `yaml:"defence_seconds"`
	FinalSeconds   int `yaml:"final_seconds"`
}

// Bots 控制機器人出手前的思考延遲（毫秒）。
type Bots struct {
	MinThinkMillis int `yaml:"min_think_millis"`
	MaxThinkMillis int `yaml:"max_think_millis"`
}

// Default 回傳內建規則。
func Default() Rules {
	return Rules{
		Phases: Phases{
			NightSeconds:   40,
			DiscussSeconds: 60,
			VoteSeconds:    20,
			DefenceSeconds: 10,
			FinalSeconds:   10,
		},
		Bots: Bots{
			MinThinkMillis: 800,
			MaxThinkMillis: 2400,
		},
	}
}

// Load 讀取 YAML 規則檔。檔案不存在時沿用內建規則，不視為錯誤；
// 檔案存在但缺漏的欄位以內建值補齊。
func Load(path string) (Rules, error) {
	rules := Default()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rules, nil
		}
		return rules, fmt.Errorf("讀取規則檔 %s 失敗: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("解析規則檔 %s 失敗: %w", path, err)
	}

	rules.applyDefaults()
	if err := rules.validate(); err != nil {
		return rules, fmt.Errorf("規則檔 %s 內容無效: %w", path, err)
	}
	return rules, nil
}

func (r *Rules) applyDefaults() {
	def := Default()
	if r.Phases.NightSeconds == 0 {
		r.Phases.NightSeconds = def.Phases.NightSeconds
	}
	if r.Phases.DiscussSeconds == 0 {
		r.Phases.DiscussSeconds = def.Phases.DiscussSeconds
	}
	if r.Phases.VoteSeconds == 0 {
		r.Phases.VoteSeconds = def.Phases.VoteSeconds
	}
	if r.Phases.DefenceSeconds == 0 {
		r.Phases.DefenceSeconds = def.Phases.DefenceSeconds
	}
	if r.Phases.FinalSeconds == 0 {
		r.Phases.FinalSeconds = def.Phases.FinalSeconds
	}
	if r.Bots.MinThinkMillis == 0 {
		r.Bots.MinThinkMillis = def.Bots.MinThinkMillis
	}
	if r.Bots.MaxThinkMillis == 0 {
		r.Bots.MaxThinkMillis = def.Bots.MaxThinkMillis
	}
}

func (r Rules) validate() error {
	for _, v := range []struct {
		name  string
		value int
	}{
		{"phases.night_seconds", r.Phases.NightSeconds},
		{"phases.discuss_seconds", r.Phases.DiscussSeconds},
		{"phases.vote_seconds", r.Phases.VoteSeconds},
		{"phases.defence_seconds", r.Phases.DefenceSeconds},
		{"phases.final_seconds", r.Phases.FinalSeconds},
	} {
		if v.value < 1 {
			return fmt.Errorf("%s 必須為正數", v.name)
		}
	}
	if r.Bots.MinThinkMillis < 0 || r.Bots.MaxThinkMillis < 0 {
		return fmt.Errorf("bots 延遲不可為負數")
	}
	if r.Bots.MaxThinkMillis < r.Bots.MinThinkMillis {
		return fmt.Errorf("bots.max_think_millis 不可小於 min_think_millis")
	}
	return nil
}
