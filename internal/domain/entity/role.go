package entity

// Actor 发起请求的身份，匿名访问时 UserID 为空
type Actor struct {
	UserID string
	Role   UserRole
}

// Anonymous 匿名身份
func Anonymous() Actor {
	return Actor{}
}

// IsAnonymous 是否未登录
func (a Actor) IsAnonymous() bool {
	return a.UserID == ""
}

// IsAdmin 是否为管理员
func (a Actor) IsAdmin() bool {
	return a.Role == UserRoleAdmin
}

// CanAuthor 是否可以创作
func (a Actor) CanAuthor() bool {
	return a.Role == UserRoleAuthor || a.Role == UserRoleAdmin
}

// CanManage 作者本人或管理员
func (a Actor) CanManage(ownerID string) bool {
	if a.IsAnonymous() {
		return false
	}
	return a.IsAdmin() || a.UserID == ownerID
}
