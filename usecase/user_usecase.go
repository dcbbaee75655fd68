package usecase

import (
	"context"
	"crypto/md5"
	"fmt"
	"strconv"
	"time"

	"creator-hub/domain/dto"
	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/configuration"
	"creator-hub/infrastructure/logger"
	"creator-hub/infrastructure/utils"
)

type IUserUsecase interface {
	Login(ctx context.Context, req model.ReqLogin) dto.Res
	Register(ctx context.Context, req model.ReqRegister) dto.Res
}

type UserUsecase struct {
	userRepository repository.IUser
}

func NewUserUsecase(userRepository repository.IUser) IUserUsecase {
	return &UserUsecase{userRepository: userRepository}
}

func (u *UserUsecase) Login(ctx context.Context, req model.ReqLogin) dto.Res {
	var res dto.Res
	res.ResponseCode = "401"
	res.ResponseMessage = "Unauthorized"

	user, err := u.userRepository.GetByUserName(ctx, req.UserName)
	if err != nil {
		logger.GetLogger().WithField("user_name", req.UserName).Info("login for unknown user")
		return res
	}
	hashed := fmt.Sprintf("%x", md5.Sum([]byte(req.Password)))
	if hashed != user.Password {
		return res
	}

	token, err := utils.GenerateToken(map[string]interface{}{
		"iss":       strconv.Itoa(user.ID),
		"user_name": user.UserName,
		"exp":       time.Now().Add(24 * time.Hour).Unix(),
	}, configuration.C.App.SecretKey)
	if err != nil {
		res.ResponseCode = "500"
		res.ResponseMessage = "Internal Server Error"
		return res
	}

	res.ResponseCode = "200"
	res.ResponseMessage = "Success"
	res.Data = map[string]interface{}{
		"token":      token,
		"user_name":  user.UserName,
		"creator_id": user.CreatorID(),
	}
	return res
}

func (u *UserUsecase) Register(ctx context.Context, req model.ReqRegister) dto.Res {
	var res dto.Res

	if _, err := u.userRepository.GetByUserName(ctx, req.UserName); err == nil {
		res.ResponseCode = "409"
		res.ResponseMessage = "User already exists"
		return res
	}

	user := model.User{
		Name:     req.Name,
		UserName: req.UserName,
		Password: req.Password,
	}
	if err := u.userRepository.CreateUser(ctx, user); err != nil {
		logger.GetLogger().WithField("error", err).Error("create user failed")
		res.ResponseCode = "500"
		res.ResponseMessage = "Internal Server Error"
		return res
	}

	res.ResponseCode = "201"
	res.ResponseMessage = "Created"
	return res
}
