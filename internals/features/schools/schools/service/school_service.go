package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"campusorbit_backend/internals/constants"
	activityService "campusorbit_backend/internals/features/schools/activity_logs/service"
	"campusorbit_backend/internals/features/schools/schools/dto"
	"campusorbit_backend/internals/features/schools/schools/model"
	userModel "campusorbit_backend/internals/features/users/users/model"
	helper "campusorbit_backend/internals/helpers"
	"campusorbit_backend/internals/helpers/dbtime"
)

func checkTimezone(tz string) error {
	if !dbtime.ValidTimezone(tz) {
		return helper.Validationf("unknown timezone %q", tz)
	}
	return nil
}

// CreateSchool provisions a tenant in one transaction: the school, its default
// feature toggles and the first school admin.
func CreateSchool(ctx context.Context, db *gorm.DB, req dto.CreateSchoolRequest, performedBy *uuid.UUID) (dto.SchoolDetail, error) {
	var out dto.SchoolDetail
	school := req.ToModel()
	if err := checkTimezone(school.SchoolTimezone); err != nil {
		return out, err
	}

	admin := userModel.User{
		UserEmail:     req.Admin.Email,
		UserFirstName: strings.TrimSpace(req.Admin.FirstName),
		UserLastName:  strings.TrimSpace(req.Admin.LastName),
		UserPhone:     req.Admin.Phone,
		UserRole:      constants.RoleSchoolAdmin,
		UserIsActive:  true,
	}
	if err := admin.SetPassword(req.Admin.Password); err != nil {
		return out, errors.Wrap(err, "hash password")
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&school).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return helper.Conflictf("school code %s already exists", school.SchoolCode)
			}
			return errors.Wrap(err, "create school")
		}
		toggle := model.DefaultFeatureToggle(school.SchoolID)
		if err := tx.Create(&toggle).Error; err != nil {
			return errors.Wrap(err, "create feature toggles")
		}
		admin.UserSchoolID = &school.SchoolID
		if err := tx.Create(&admin).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return helper.Conflictf("email %s is already registered", admin.UserEmail)
			}
			return errors.Wrap(err, "create school admin")
		}
		out = dto.SchoolDetail{School: school, Features: toggle, Admin: &admin}
		return activityService.Record(tx, &school.SchoolID, activityService.ActionSchoolCreated,
			"school "+school.SchoolName+" created", performedBy,
			map[string]any{"school_code": school.SchoolCode, "admin_email": admin.UserEmail})
	})
	if err != nil {
		return dto.SchoolDetail{}, err
	}
	return out, nil
}

func GetSchool(ctx context.Context, db *gorm.DB, schoolID uuid.UUID) (dto.SchoolDetail, error) {
	var out dto.SchoolDetail
	var s model.School
	if err := db.WithContext(ctx).Where("school_id = ?", schoolID).Take(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, helper.NotFoundf("school %s", schoolID)
		}
		return out, err
	}
	t, err := GetFeatures(ctx, db, schoolID)
	if err != nil {
		return out, err
	}
	return dto.SchoolDetail{School: s, Features: t}, nil
}

type ListFilter struct {
	Status *model.SchoolStatus
	Search string
}

func ListSchools(ctx context.Context, db *gorm.DB, f ListFilter, p helper.Paging) ([]model.School, int64, error) {
	q := db.WithContext(ctx).Model(&model.School{})
	if f.Status != nil {
		q = q.Where("school_status = ?", *f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(school_name) LIKE ? OR LOWER(school_code) LIKE ?", like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.School
	err := q.Order("school_name ASC").Offset(p.Offset).Limit(p.Limit).Find(&rows).Error
	return rows, total, err
}

func UpdateSchool(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, req dto.UpdateSchoolRequest) (model.School, error) {
	var s model.School
	if err := db.WithContext(ctx).Where("school_id = ?", schoolID).Take(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s, helper.NotFoundf("school %s", schoolID)
		}
		return s, err
	}
	req.Apply(&s)
	if !s.SchoolStatus.Valid() {
		return s, helper.Validationf("invalid school status %q", s.SchoolStatus)
	}
	if err := checkTimezone(s.SchoolTimezone); err != nil {
		return s, err
	}
	if err := db.WithContext(ctx).Save(&s).Error; err != nil {
		return s, err
	}
	return s, nil
}

// GetFeatures returns the stored toggles, or the defaults when the school has
// none yet.
func GetFeatures(ctx context.Context, db *gorm.DB, schoolID uuid.UUID) (model.SchoolFeatureToggle, error) {
	var t model.SchoolFeatureToggle
	err := db.WithContext(ctx).Where("feature_toggle_school_id = ?", schoolID).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DefaultFeatureToggle(schoolID), nil
	}
	return t, err
}

// UpdateFeatures applies a partial toggle change and logs what changed.
func UpdateFeatures(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, req dto.UpdateFeaturesRequest, performedBy *uuid.UUID) (model.SchoolFeatureToggle, error) {
	var t model.SchoolFeatureToggle
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.School{}).Where("school_id = ?", schoolID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return helper.NotFoundf("school %s", schoolID)
		}

		var current model.SchoolFeatureToggle
		err := tx.Where("feature_toggle_school_id = ?", schoolID).Take(&current).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			current = model.DefaultFeatureToggle(schoolID)
			req.Apply(&current)
			if err := tx.Create(&current).Error; err != nil {
				return err
			}
			t = current
			return activityService.Record(tx, &schoolID, activityService.ActionFeaturesUpdated,
				"feature toggles created", performedBy, nil)
		case err != nil:
			return err
		}

		changed := req.Apply(&current)
		t = current
		if len(changed) == 0 {
			return nil
		}
		if err := tx.Save(&current).Error; err != nil {
			return err
		}
		t = current
		return activityService.Record(tx, &schoolID, activityService.ActionFeaturesUpdated,
			"feature toggles updated", performedBy, changed)
	})
	return t, err
}
