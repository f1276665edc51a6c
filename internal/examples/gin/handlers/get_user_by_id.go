package handlers

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/victormf2/goinject/internal/examples/gin/repositories"
)

// GetUserByIDHandler is built with goinject.ClassFor, so its dependencies
// are injected into the tagged fields.
type GetUserByIDHandler struct {
	Logger         *logrus.Entry                `inject:""`
	UserRepository repositories.IUserRepository `inject:""`
}

type GetUserByIDInput struct {
	ID int64 `uri:"id" binding:"required"`
}

type GetUserByIDOutput struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

var ErrUserNotFound = errors.New("user not found")

func (h *GetUserByIDHandler) Handle(input *GetUserByIDInput) (*GetUserByIDOutput, error) {
	logger := h.Logger.WithField("user_id", input.ID)
	logger.Info("Finding user")

	user, err := h.UserRepository.GetByID(input.ID)
	if err != nil {
		logger.WithError(err).Error("Failed to get user")
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	logger.Info("User found")
	output := &GetUserByIDOutput{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}

	return output, nil
}
