package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/foe05/HGMH-App/core"
)

// Roles
const (
	RoleAdministrator = "administrator"
	RoleObmann        = "pr25_obmann"
	RoleJaeger        = "jaeger"
)

var (
	AllRoles = []string{RoleAdministrator, RoleObmann, RoleJaeger}

	rolePriorities = map[string]int{
		RoleAdministrator: 30,
		RoleObmann:        20,
		RoleJaeger:        10,
	}

	Roles = []Role{
		{Name: "Jäger", Value: RoleJaeger},
		{Name: "Obmann", Value: RoleObmann},
		{Name: "Administrator", Value: RoleAdministrator},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID                 int        `json:"id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	DisplayName        string     `json:"display_name"`
	Roles              []string   `json:"roles"`
	Jagdgebiete        []int      `json:"jagdgebiete"`
	HegegemeinschaftID int        `json:"hegegemeinschaft_id"`
	IsActive           bool       `json:"is_active"`
	PasswordHash       []byte     `json:"-"`
	FCMToken           string     `json:"-"`
	DeviceID           string     `json:"-"`
	CreatedAt          time.Time  `json:"created_at"` // UTC
	UpdatedAt          time.Time  `json:"updated_at"` // UTC
	LastLogin          *time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u User) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

func (u User) IsAdmin() bool {
	return u.HasRole(RoleAdministrator)
}

func (u User) IsObmann() bool {
	return u.HasRole(RoleObmann)
}

// IsPrivileged reports whether the user has elevated read & export permissions.
func (u User) IsPrivileged() bool {
	return u.IsAdmin() || u.IsObmann()
}

func (u User) HasJagdgebiet(id int) bool {
	return core.IntsContain(u.Jagdgebiete, id)
}

// Name returns the display name, falling back to the username.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

func (u User) MailAddress() mail.Address {
	return mail.Address{Name: u.Name(), Address: u.Email}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username           string   `json:"username" validate:"required,min=3,max=60,alphanum_"`
	Email              string   `json:"email" validate:"omitempty,email"`
	DisplayName        string   `json:"display_name" validate:"max=250"`
	Password           string   `json:"password" validate:"required"`
	PasswordConfirm    string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles              []string `json:"roles" validate:"omitempty,allroles"`
	Jagdgebiete        []int    `json:"jagdgebiete"`
	HegegemeinschaftID int      `json:"hegegemeinschaft_id"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.DisplayName = core.CleanString(nu.DisplayName)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if len(nu.Roles) == 0 {
		nu.Roles = []string{RoleJaeger}
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// nil fields are left untouched.
type UpdateUser struct {
	DisplayName        *string   `json:"display_name" validate:"omitempty,max=250"`
	Email              *string   `json:"email" validate:"omitempty,email"`
	IsActive           *bool     `json:"is_active"`
	Roles              *[]string `json:"roles" validate:"omitempty,allroles"`
	Jagdgebiete        *[]int    `json:"jagdgebiete"`
	HegegemeinschaftID *int      `json:"hegegemeinschaft_id"`
	Password           string    `json:"password"`
	PasswordConfirm    string    `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`

	orig User // used by the password policy
}

// IsPrivilegedChange reports whether the update touches fields only administrators may change.
func (uu UpdateUser) IsPrivilegedChange() bool {
	return uu.IsActive != nil || uu.Roles != nil || uu.Jagdgebiete != nil || uu.HegegemeinschaftID != nil
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc *Service) error {
	if uu.DisplayName != nil {
		name := core.CleanString(*uu.DisplayName)
		uu.DisplayName = &name
	}
	if uu.Email != nil {
		email := core.CleanString(*uu.Email, true /* lower */)
		uu.Email = &email
	}
	uu.orig = origUsr

	if err := validate.Struct(uu); err != nil {
		return err
	}
	if uu.Email != nil && *uu.Email != origUsr.Email {
		return svc.checkUniqueness(ctx, "", *uu.Email, origUsr.ID)
	}
	return nil
}

// apply returns a copy of usr with the update applied.
func (uu UpdateUser) apply(usr User) (User, error) {
	if uu.DisplayName != nil {
		usr.DisplayName = *uu.DisplayName
	}
	if uu.Email != nil {
		usr.Email = *uu.Email
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Roles != nil {
		usr.Roles = *uu.Roles
	}
	if uu.Jagdgebiete != nil {
		usr.Jagdgebiete = *uu.Jagdgebiete
	}
	if uu.HegegemeinschaftID != nil {
		usr.HegegemeinschaftID = *uu.HegegemeinschaftID
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	return usr, nil
}

type QueryFilter struct {
	Search       string   `query:"search"`
	Roles        []string `query:"role"`
	JagdgebietID int      `query:"jagdgebiet_id"`
	IsActive     *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.JagdgebietID == 0 && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	roles := qf.Roles[:0]
	for _, r := range qf.Roles {
		if r = core.CleanString(r, true /* lower */); r != "" {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		roles = nil
	}
	qf.Roles = roles
}

// JoinRoles & SplitRoles convert roles to & from their DB representation.
func JoinRoles(roles []string) string {
	return strings.Join(roles, ",")
}

func SplitRoles(s string) []string {
	roles := make([]string, 0, 1)
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}
