package models

import "gorm.io/gorm"

const (
    RoleUser      = "user"
    RoleModerator = "moderator"
    RoleAdmin     = "admin"
)

type User struct {
    gorm.Model
    Handle   string `gorm:"column:handle;size:50;uniqueIndex;not null" json:"handle"`
    Email    string `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
    Password string `gorm:"column:password;not null" json:"-"`
    Role     string `gorm:"column:role;size:20;default:user" json:"role"`
}

// IsPrivileged reports whether the user may review flags and moderate posts.
func (u *User) IsPrivileged() bool {
    return u.Role == RoleModerator || u.Role == RoleAdmin
}
