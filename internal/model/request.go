package model

// GenerateRequest 生成网站的请求，header/hero/footer 为可选的版块描述
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Theme  string `json:"theme"`
	Header string `json:"header"`
	Hero   string `json:"hero"`
	Footer string `json:"footer"`
}

type HintsRequest struct {
	Prompt string `form:"prompt"`
}
