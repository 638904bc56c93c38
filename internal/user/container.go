package user

import "gorm.io/gorm"

type UserContainer struct {
	Repo    UserRepository
	Handler *Handler
}

func NewUserContainer(db *gorm.DB) *UserContainer {
	repo := NewRepository(db)
	handler := NewHandler(repo)

	return &UserContainer{
		Repo:    repo,
		Handler: handler,
	}
}
