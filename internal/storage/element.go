package storage

// ElementState: изменяемое состояние одного правила в сессии редактора.
// Logos заполнен только у logo-правил и никогда не nil у них.
type ElementState struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Scale    float64    `json:"scale"`
	Value    string     `json:"value"`
	FontSize float64    `json:"font_size"`
	Logos    []LogoItem `json:"logos"`
	LogoGap  float64    `json:"logo_gap,omitempty"`
}

// Clone: глубокая копия, чтобы снимок для экспорта не делил срез логотипов.
func (e ElementState) Clone() ElementState {
	if e.Logos != nil {
		logos := make([]LogoItem, len(e.Logos))
		copy(logos, e.Logos)
		e.Logos = logos
	}
	return e
}
