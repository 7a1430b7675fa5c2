// Пакет rbac — определение роли сотрудника студии по данным токена.
// Роль берётся из claim "role" либо вычисляется по группам IdP.
// admin управляет заявками и уведомлениями, readonly только просматривает заявки.
package rbac

// Роли в порядке возрастания привилегий.
const (
	RoleReadonly = "readonly"
	RoleAdmin    = "admin"
)

var roleWeight = map[string]int{
	RoleReadonly: 1,
	RoleAdmin:    2,
}

// ResolveRole вычисляет роль субъекта.
// Явный claim role имеет приоритет, если это допустимая роль;
// иначе роль берётся из групп. Пустая строка — роли нет.
func ResolveRole(roleClaim string, groups, adminGroups, readonlyGroups []string) string {
	if IsValidRole(roleClaim) {
		return roleClaim
	}
	return MapGroupsToRole(groups, adminGroups, readonlyGroups)
}

// MapGroupsToRole определяет роль по группам IdP.
// Возвращает максимальную роль из всех совпадений или пустую строку.
func MapGroupsToRole(groups []string, adminGroups, readonlyGroups []string) string {
	adminSet := toSet(adminGroups)
	readonlySet := toSet(readonlyGroups)

	var roles []string
	for _, g := range groups {
		if adminSet[g] {
			roles = append(roles, RoleAdmin)
		}
		if readonlySet[g] {
			roles = append(roles, RoleReadonly)
		}
	}

	return HighestRole(roles)
}

// HighestRole возвращает максимальную роль из набора.
func HighestRole(roles []string) string {
	highest := ""
	for _, r := range roles {
		if roleWeight[r] > roleWeight[highest] {
			highest = r
		}
	}
	return highest
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// CanView — роль может просматривать заявки.
func CanView(role string) bool {
	return roleWeight[role] >= roleWeight[RoleReadonly]
}

// CanManage — роль может менять статусы, удалять заявки и работать с уведомлениями.
func CanManage(role string) bool {
	return role == RoleAdmin
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, item := range items {
		s[item] = true
	}
	return s
}
