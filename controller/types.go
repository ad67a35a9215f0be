package controller

type localQuery struct {
	PTY bool `form:"pty"`
}

type sshInfo struct {
	Host     string `json:"host" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Port     int    `json:"port"`
}
