package usecase

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"creator-hub/domain/model"
)

type mockUserRepository struct{ mock.Mock }

func (m *mockUserRepository) GetById(ctx context.Context, id int) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserRepository) GetByUserName(ctx context.Context, userName string) (model.User, error) {
	args := m.Called(ctx, userName)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func hashPassword(p string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(p)))
}

func TestLogin_Success(t *testing.T) {
	userRepository := new(mockUserRepository)
	u := NewUserUsecase(userRepository)

	userRepository.On("GetByUserName", mock.Anything, "tulus").
		Return(model.User{ID: 1, Name: "Tulus", UserName: "tulus", Password: hashPassword("123456")}, nil).Once()

	res := u.Login(context.Background(), model.ReqLogin{UserName: "tulus", Password: "123456"})
	assert.Equal(t, "200", res.ResponseCode)
	data := res.Data.(map[string]interface{})
	assert.Equal(t, "tulus", data["user_name"])
	assert.Equal(t, "1", data["creator_id"])
	assert.NotEmpty(t, data["token"])
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepository := new(mockUserRepository)
	u := NewUserUsecase(userRepository)

	userRepository.On("GetByUserName", mock.Anything, "tulus").
		Return(model.User{ID: 1, UserName: "tulus", Password: hashPassword("123456")}, nil).Once()

	res := u.Login(context.Background(), model.ReqLogin{UserName: "tulus", Password: "guess"})
	assert.Equal(t, "401", res.ResponseCode)
}

func TestLogin_UnknownUser(t *testing.T) {
	userRepository := new(mockUserRepository)
	u := NewUserUsecase(userRepository)

	userRepository.On("GetByUserName", mock.Anything, "ghost").
		Return(model.User{}, errors.New("sql: no rows in result set")).Once()

	res := u.Login(context.Background(), model.ReqLogin{UserName: "ghost", Password: "123456"})
	assert.Equal(t, "401", res.ResponseCode)
}

func TestRegister_Success(t *testing.T) {
	userRepository := new(mockUserRepository)
	u := NewUserUsecase(userRepository)

	userRepository.On("GetByUserName", mock.Anything, "tulus").
		Return(model.User{}, errors.New("sql: no rows in result set")).Once()
	userRepository.On("CreateUser", mock.Anything, mock.MatchedBy(func(user model.User) bool {
		return user.UserName == "tulus" && user.Name == "Tulus"
	})).Return(nil).Once()

	res := u.Register(context.Background(), model.ReqRegister{Name: "Tulus", UserName: "tulus", Password: hashPassword("123456")})
	assert.Equal(t, "201", res.ResponseCode)
	userRepository.AssertExpectations(t)
}

func TestRegister_AlreadyExists(t *testing.T) {
	userRepository := new(mockUserRepository)
	u := NewUserUsecase(userRepository)

	userRepository.On("GetByUserName", mock.Anything, "tulus").
		Return(model.User{ID: 1, UserName: "tulus"}, nil).Once()

	res := u.Register(context.Background(), model.ReqRegister{Name: "Tulus", UserName: "tulus", Password: hashPassword("123456")})
	assert.Equal(t, "409", res.ResponseCode)
	userRepository.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}
