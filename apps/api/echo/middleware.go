package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jukulab/shiken/core/permission"
	"github.com/jukulab/shiken/core/school"
	"github.com/jukulab/shiken/core/user"
)

func schoolAdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Role == user.RoleSchoolAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// capabilityMiddleware resolves cap for the bearer against the live
// classroom permission set and school settings, not the token.
func capabilityMiddleware(cap permission.Capability, userSvc *user.Service, schoolSvc *school.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, userSvc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			if usr.IsClassroomAdmin() && usr.ClassroomID != 0 {
				perms, err := schoolSvc.ClassroomPermissions(usr.ClassroomID)
				if err != nil && errors.Cause(err) != school.ErrClassroomNotFound {
					return errors.Wrap(err, "getting classroom permissions")
				}
				usr.Permissions = perms
				ctx.Set(contextUserKey, usr)
			}

			policy, err := schoolSvc.Settings(usr.SchoolID)
			if err != nil {
				if errors.Cause(err) != school.ErrSchoolNotFound {
					return errors.Wrap(err, "getting school settings")
				}
				if !user.Can(&usr, cap, nil) {
					return errHttpForbidden
				}
				return next(ctx)
			}

			if !user.Can(&usr, cap, &policy) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
