package user

import (
    "encoding/json"
    "errors"
    "net/http"
    "os"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v4"
    "github.com/inkwell-press/inkwell-server/cmd/models"
    "github.com/inkwell-press/inkwell-server/cmd/utils"
    "github.com/gorilla/mux"
    "golang.org/x/crypto/bcrypt"
    "gorm.io/gorm"
)

type Handler struct {
    db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
    return &Handler{db: db}
}

// RegisterRoutes sets up all user-related routes
func (h *Handler) RegisterRoutes(router *mux.Router) {
    router.HandleFunc("/register", h.HandleRegister).Methods("POST")
    router.HandleFunc("/login", h.handleLogin).Methods("POST")
    router.HandleFunc("/users/{id}", h.GetUser).Methods("GET")
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
    var body struct {
        Handle   string `json:"handle"`
        Email    string `json:"email"`
        Password string `json:"password"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid request body", err))
        return
    }
    if body.Handle == "" || body.Email == "" || len(body.Password) < 8 {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Handle, email and a password of at least 8 characters are required", nil))
        return
    }

    hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
    if err != nil {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrDatabase, "Error hashing password", err))
        return
    }

    user := models.User{
        Handle:   body.Handle,
        Email:    body.Email,
        Password: string(hashed),
        Role:     models.RoleUser,
    }
    if err := h.db.Create(&user).Error; err != nil {
        if errors.Is(err, gorm.ErrDuplicatedKey) {
            utils.RespondWithAppError(w, utils.NewAppError(utils.ErrAlreadyExists, "Handle or email already registered", err))
            return
        }
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    utils.RespondWithJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
    var body struct {
        Email    string `json:"email"`
        Password string `json:"password"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid request body", err))
        return
    }

    var user models.User
    if err := h.db.Where("email = ?", body.Email).First(&user).Error; err != nil {
        utils.RespondWithAppError(w, utils.NewUnauthenticatedError("invalid credentials"))
        return
    }
    if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
        utils.RespondWithAppError(w, utils.NewUnauthenticatedError("invalid credentials"))
        return
    }

    claims := jwt.RegisteredClaims{
        Subject:   strconv.FormatUint(uint64(user.ID), 10),
        ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
        IssuedAt:  jwt.NewNumericDate(time.Now()),
    }
    token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := token.SignedString([]byte(os.Getenv("SECRET_KEY")))
    if err != nil {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrDatabase, "Error signing token", err))
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
        "token": signed,
        "user":  user,
    })
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
    vars := mux.Vars(r)
    userID, err := strconv.ParseUint(vars["id"], 10, 64)
    if err != nil {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid user ID", err))
        return
    }

    var user models.User
    if err := h.db.First(&user, uint(userID)).Error; err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            utils.RespondWithAppError(w, utils.NewNotFoundError("User"))
            return
        }
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, user)
}
