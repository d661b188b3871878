package domain

import "time"

// UserType é o papel do usuário dentro da escola.
type UserType string

const (
	UserProfessor    UserType = "professor"
	UserCoordenadora UserType = "coordenadora"
	UserDiretora     UserType = "diretora"
	UserAdmin        UserType = "admin"
)

func (u UserType) Valid() bool {
	switch u {
	case UserProfessor, UserCoordenadora, UserDiretora, UserAdmin:
		return true
	}
	return false
}

// User é o perfil do usuário. O ID é o mesmo do provedor de identidade.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	UserType  UserType  `json:"user_type"`
	SchoolID  string    `json:"school_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Signup reúne os dados de cadastro enviados junto com o primeiro pagamento.
type Signup struct {
	SchoolName string
	Name       string
	Email      string
	Password   string
	PlanType   PlanType
	UserType   UserType
}
