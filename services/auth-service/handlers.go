package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"lapordesa/pkg/middleware"
	"lapordesa/pkg/response"
	"lapordesa/services/auth-service/models"
	"lapordesa/services/auth-service/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// isValidPassword checks password strength
func isValidPassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password minimal 8 karakter"
	}
	if len(password) > 100 {
		return false, "Password terlalu panjang"
	}
	return true, ""
}

// isValidNIK validates the 16-digit Indonesian national id.
func isValidNIK(nik string) bool {
	if len(nik) != 16 {
		return false
	}
	for _, c := range nik {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

type server struct {
	users     userStore
	tokens    *utils.Issuer
	logger    *zap.Logger
	jwtSecret []byte
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.MetricsMiddleware)

	r.Get("/health", s.health)
	r.Handle("/metrics", middleware.GetMetricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/citizens/register", s.register)
		r.Post("/citizens/login", s.login(models.RoleCitizen))
		r.With(middleware.AuthMiddleware(s.jwtSecret)).Get("/citizens/me", s.me)
		r.Post("/admin/login", s.login(models.RoleAdmin))
	})
	return r
}

type session struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *server) issue(w http.ResponseWriter, r *http.Request, u *models.User, status int, message string) {
	token, err := s.tokens.Issue(u.ID, u.Email, u.Name, u.Role)
	if err != nil {
		middleware.WithTrace(s.logger, r).Error("[ERROR] Failed to generate token", zap.String("user_id", u.ID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Gagal membuat token", "")
		return
	}
	response.Success(w, status, message, session{ID: u.ID, Token: token, Name: u.Name, Email: u.Email, Role: u.Role})
}

func (s *server) register(w http.ResponseWriter, r *http.Request) {
	log := middleware.WithTrace(s.logger, r)

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		NIK      string `json:"nik"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Warn("[WARN] Invalid register payload")
		response.Error(w, http.StatusBadRequest, "Payload tidak valid", "")
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if input.Email == "" || input.Password == "" || input.Name == "" {
		response.Error(w, http.StatusBadRequest, "Email, password, dan nama wajib diisi", "")
		return
	}
	if !isValidEmail(input.Email) {
		response.Error(w, http.StatusBadRequest, "Format email tidak valid", "")
		return
	}
	if ok, msg := isValidPassword(input.Password); !ok {
		response.Error(w, http.StatusBadRequest, msg, "")
		return
	}
	if len(input.Name) < 3 {
		response.Error(w, http.StatusBadRequest, "Nama minimal 3 karakter", "")
		return
	}
	if input.NIK != "" && !isValidNIK(input.NIK) {
		response.Error(w, http.StatusBadRequest, "NIK harus 16 digit", "")
		return
	}

	if _, err := s.users.FindByEmail(r.Context(), input.Email); err == nil {
		log.Warn("[WARN] Registration attempt with existing email")
		response.Error(w, http.StatusConflict, "Email sudah terdaftar", "")
		return
	} else if !errors.Is(err, errUserNotFound) {
		log.Error("[ERROR] Failed to look up email", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Gagal memproses pendaftaran", "")
		return
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		log.Error("[ERROR] Failed to hash password", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Gagal memproses pendaftaran", "")
		return
	}

	user := &models.User{
		Email:    input.Email,
		Password: hashed,
		Name:     input.Name,
		Role:     models.RoleCitizen,
		Phone:    input.Phone,
		Address:  input.Address,
	}
	if input.NIK != "" {
		user.NIK = &input.NIK
	}

	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, errEmailTaken) {
			response.Error(w, http.StatusConflict, "Email sudah terdaftar", "")
			return
		}
		log.Error("[ERROR] Failed to save user", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Gagal menyimpan akun", "")
		return
	}

	log.Info("[OK] Citizen registered", zap.String("user_id", user.ID))
	s.issue(w, r, user, http.StatusCreated, "Pendaftaran berhasil")
}

// login accepts only accounts of the given role, so a citizen cannot obtain
// an admin session through the admin endpoint or the other way round.
func (s *server) login(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.WithTrace(s.logger, r)

		var input struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			response.Error(w, http.StatusBadRequest, "Payload tidak valid", "")
			return
		}
		if input.Email == "" || input.Password == "" {
			response.Error(w, http.StatusBadRequest, "Email dan password wajib diisi", "")
			return
		}

		user, err := s.users.FindByEmail(r.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
		if err != nil && !errors.Is(err, errUserNotFound) {
			log.Error("[ERROR] Failed to look up user", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "Gagal memproses login", "")
			return
		}
		if err != nil || user.Role != role || !utils.CheckPasswordHash(input.Password, user.Password) {
			log.Warn("[WARN] Failed login attempt", zap.String("role", role))
			response.Error(w, http.StatusUnauthorized, "Email atau password salah", "")
			return
		}

		log.Info("[OK] User logged in", zap.String("user_id", user.ID), zap.String("role", user.Role))
		s.issue(w, r, user, http.StatusOK, "Login berhasil")
	}
}

func (s *server) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	user, err := s.users.FindByID(r.Context(), claims.UserID)
	if errors.Is(err, errUserNotFound) {
		response.Error(w, http.StatusNotFound, "Akun tidak ditemukan", "")
		return
	}
	if err != nil {
		middleware.WithTrace(s.logger, r).Error("[ERROR] Failed to load profile", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Gagal memuat profil", "")
		return
	}
	response.Success(w, http.StatusOK, "Profil pengguna", user)
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.users.Ping(ctx); err != nil {
		response.Error(w, http.StatusServiceUnavailable, "Auth service is unhealthy", "database disconnected")
		return
	}
	response.Success(w, http.StatusOK, "Auth service is healthy", map[string]string{"database": "connected"})
}
