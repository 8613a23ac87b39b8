package model

// Role はセッション上のユーザー権限を表す。
// 実質的に匿名か認証済みオペレーターかの二値。
type Role string

const (
	// RoleAnonymous は未ログインの閲覧者。
	RoleAnonymous Role = ""
	// RoleOperator は記事を編集できる認証済みオペレーター。
	RoleOperator Role = "admin"
)

// Identity はログイン中のユーザーを表す。
// ログイン時に生成され、セッションの間だけメモリ上に保持される。
type Identity struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role,omitempty"`
}

// IsOperator は記事の変更操作が許可されたユーザーかを返す。
// ストアがroleを返さない場合もログイン済みならオペレーターとみなす。
func (i *Identity) IsOperator() bool {
	return i != nil && !i.ID.IsZero()
}

// User はストア側で保持するアカウントを表す。
type User struct {
	ID           ID
	Username     string
	Email        string
	PasswordHash string
	Role         Role
}

// Identity はアカウントからセッション用のIdentityを生成する。
func (u *User) Identity() *Identity {
	role := u.Role
	if role == RoleAnonymous {
		role = RoleOperator
	}
	return &Identity{ID: u.ID, Username: u.Username, Role: role}
}
