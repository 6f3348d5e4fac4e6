package service

import (
	"errors"
	"fmt"
	"os"
	"time"

	"signite/internal/model"
	"signite/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = time.Hour * 2
	refreshTokenTTL = time.Hour * 24 * 14
)

// 用户服务接口：1、注册 2、登录 3、刷新token
type UserService interface {
	Register(username, email, password string) (*model.User, error)
	// 登录成功返回 accessToken, refreshToken
	Login(username, password string) (string, string, error)
	// 用有效的refresh token换一个新的access token
	Refresh(refreshToken string) (string, error)
}

// 用户服务包装
type userService struct {
	userRepo repository.UserRepository
}

// 包装函数
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// 注册逻辑：1、检查是否重名 2、密码bcrypt加密存储 3、创建用户表项
func (s *userService) Register(username, email, password string) (*model.User, error) {
	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, fmt.Errorf("%w: 用户名已存在", ErrInvalidState)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	newUser := &model.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Role:     model.RoleUser,
	}

	if err := s.userRepo.Create(newUser); err != nil {
		return nil, err
	}
	return newUser, nil
}

// 登录逻辑：1、检查库中是否有该用户名 2、加密后密码和输入密码比对 3、签发一对token
func (s *userService) Login(username, password string) (string, string, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", fmt.Errorf("%w: 用户名不存在", ErrNotFound)
		}
		return "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", fmt.Errorf("%w: 用户名或密码错误", ErrForbidden)
	}

	accessToken, err := s.signToken(user, accessTokenTTL, "access")
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.signToken(user, refreshTokenTTL, "refresh")
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// 刷新token：1、验证refresh token本身有效且类型正确 2、确认用户还在 3、签发新access token
func (s *userService) Refresh(refreshToken string) (string, error) {
	secretKey := []byte(os.Getenv("JWT_SECRET_KEY"))
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("非预期的签名方法")
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: 无效的refresh token", ErrForbidden)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["token_type"] != "refresh" {
		return "", fmt.Errorf("%w: 不是refresh token", ErrForbidden)
	}

	username, _ := claims["username"].(string)
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: 用户不存在", ErrNotFound)
		}
		return "", err
	}
	return s.signToken(user, accessTokenTTL, "access")
}

// token的Payload不加密，只放能公开的字段，绝不放密码
func (s *userService) signToken(user *model.User, ttl time.Duration, tokenType string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    user.ID,
		"username":   user.Username,
		"role":       user.Role,
		"token_type": tokenType,
		"exp":        time.Now().Add(ttl).Unix(), // 过期时间
		"iat":        time.Now().Unix(),          // 签发时间
	}
	// Header里带上算法信息HS256，对称加密
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	secretKey := []byte(os.Getenv("JWT_SECRET_KEY"))
	return token.SignedString(secretKey)
}
