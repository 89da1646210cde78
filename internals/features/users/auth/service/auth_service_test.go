package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"campusorbit_backend/internals/constants"
	"campusorbit_backend/internals/databases/testdb"
	schoolModel "campusorbit_backend/internals/features/schools/schools/model"
	userModel "campusorbit_backend/internals/features/users/users/model"
	helper "campusorbit_backend/internals/helpers"
	authMiddleware "campusorbit_backend/internals/middlewares/auth"
)

var testToken = TokenConfig{Secret: "unit-test-secret", TTL: time.Hour}

func createUser(t *testing.T, db *gorm.DB, school *schoolModel.School, email, password, role string, active bool) userModel.User {
	t.Helper()
	u := userModel.User{UserEmail: email, UserFirstName: "Rina", UserLastName: "Wati", UserRole: role, UserIsActive: active}
	if school != nil {
		u.UserSchoolID = &school.SchoolID
	}
	require.NoError(t, u.SetPassword(password))
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestLogin_IssuesSchoolScopedToken(t *testing.T) {
	db := testdb.Open(t)
	school := testdb.CreateSchool(t, db, "ORB")
	u := createUser(t, db, &school, "rina@orb.sch.id", "secret-123", constants.RoleTeacher, true)

	now := time.Now().Truncate(time.Second)
	res, err := Login(context.Background(), db, "  Rina@ORB.sch.id ", "secret-123", testToken, now)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, now.Add(time.Hour), res.ExpiresAt)
	require.NotNil(t, res.School)
	assert.Equal(t, "ORB", res.School.SchoolCode)

	claims := &authMiddleware.AccessClaims{}
	_, err = jwt.ParseWithClaims(res.AccessToken, claims, func(*jwt.Token) (any, error) {
		return []byte(testToken.Secret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, u.UserID.String(), claims.ID)
	assert.Equal(t, constants.RoleTeacher, claims.Role)
	assert.Equal(t, school.SchoolID.String(), claims.SchoolID)
	assert.Equal(t, "Asia/Jakarta", claims.SchoolTimezone)

	var got userModel.User
	require.NoError(t, db.Where("user_id = ?", u.UserID).Take(&got).Error)
	require.NotNil(t, got.UserLastLoginAt)
}

func TestLogin_PlatformAdminHasNoSchool(t *testing.T) {
	db := testdb.Open(t)
	createUser(t, db, nil, "root@campusorbit.io", "secret-123", constants.RolePlatformAdmin, true)

	res, err := Login(context.Background(), db, "root@campusorbit.io", "secret-123", testToken, time.Now())
	require.NoError(t, err)
	assert.Nil(t, res.School)
}

func TestLogin_Rejections(t *testing.T) {
	db := testdb.Open(t)
	school := testdb.CreateSchool(t, db, "ORB")
	closed := testdb.CreateSchool(t, db, "OLD")
	require.NoError(t, db.Model(&closed).Update("school_status", schoolModel.SchoolStatusSuspended).Error)

	createUser(t, db, &school, "ok@orb.sch.id", "secret-123", constants.RoleTeacher, true)
	createUser(t, db, &school, "off@orb.sch.id", "secret-123", constants.RoleTeacher, false)
	createUser(t, db, &closed, "admin@old.sch.id", "secret-123", constants.RoleSchoolAdmin, true)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"wrong password", "ok@orb.sch.id", "nope", ErrBadCredentials},
		{"unknown email", "ghost@orb.sch.id", "secret-123", ErrBadCredentials},
		{"inactive user", "off@orb.sch.id", "secret-123", helper.ErrForbidden},
		{"suspended school", "admin@old.sch.id", "secret-123", helper.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Login(context.Background(), db, tt.email, tt.password, testToken, time.Now())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
