package service

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// beninLocations 贝宁省份与城市
var beninLocations = map[string][]string{
	"Alibori":    {"Banikoara", "Gogounou", "Kandi", "Karimama", "Malanville", "Ségbana"},
	"Atacora":    {"Boukoumbé", "Cobly", "Kérou", "Kouandé", "Matéri", "Natitingou", "Pehunco", "Tanguiéta", "Toucountouna"},
	"Atlantique": {"Abomey-Calavi", "Allada", "Kpomassè", "Ouidah", "Sô-Ava", "Toffo", "Tori-Bossito", "Zè"},
	"Borgou":     {"Bembèrèkè", "Kalalé", "N'Dali", "Nikki", "Parakou", "Pèrèrè", "Sinendé", "Tchaourou"},
	"Collines":   {"Bantè", "Dassa-Zoumè", "Glazoué", "Ouèssè", "Savalou", "Savè"},
	"Couffo":     {"Aplahoué", "Djakotomey", "Dogbo", "Klouékanmè", "Lalo", "Toviklin"},
	"Donga":      {"Bassila", "Copargo", "Djougou", "Ouaké"},
	"Littoral":   {"Cotonou"},
	"Mono":       {"Athiémé", "Bopa", "Comè", "Grand-Popo", "Houéyogbé", "Lokossa"},
	"Ouémé":      {"Adjarra", "Adjohoun", "Aguégués", "Akpro-Missérété", "Avrankou", "Bonou", "Dangbo", "Porto-Novo", "Sèmè-Kpodji"},
	"Plateau":    {"Adja-Ouèrè", "Ifangni", "Kétou", "Pobè", "Sakété"},
	"Zou":        {"Abomey", "Agbangnizoun", "Bohicon", "Cové", "Djidja", "Ouinhi", "Za-Kpota", "Zangnanado", "Zogbodomey"},
}

// Department 省份及其城市
type Department struct {
	Name   string   `json:"name"`
	Cities []string `json:"cities"`
}

// LocationService 地区数据服务
type LocationService struct {
	departments []Department
	regionIndex map[string]string
	cityIndex   map[string]map[string]string
}

// NewLocationService 创建地区服务
func NewLocationService() *LocationService {
	names := make([]string, 0, len(beninLocations))
	for name := range beninLocations {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &LocationService{
		departments: make([]Department, 0, len(names)),
		regionIndex: make(map[string]string, len(names)),
		cityIndex:   make(map[string]map[string]string, len(names)),
	}
	for _, name := range names {
		cities := append([]string(nil), beninLocations[name]...)
		s.departments = append(s.departments, Department{Name: name, Cities: cities})
		s.regionIndex[foldLocation(name)] = name
		index := make(map[string]string, len(cities))
		for _, city := range cities {
			index[foldLocation(city)] = city
		}
		s.cityIndex[name] = index
	}
	return s
}

// Departments 返回全部省份与城市
func (s *LocationService) Departments() []Department {
	return s.departments
}

// Normalize 校验并返回规范写法的省份与城市，忽略大小写与重音
// region 为空时按城市反查省份；两者都为空视为未填写。
func (s *LocationService) Normalize(region, city string) (string, string, error) {
	region = strings.TrimSpace(region)
	city = strings.TrimSpace(city)
	if region == "" && city == "" {
		return "", "", nil
	}
	if region == "" {
		for _, department := range s.departments {
			if canonical, ok := s.cityIndex[department.Name][foldLocation(city)]; ok {
				return department.Name, canonical, nil
			}
		}
		return "", "", ErrInvalidLocation
	}
	canonicalRegion, ok := s.regionIndex[foldLocation(region)]
	if !ok {
		return "", "", ErrInvalidLocation
	}
	if city == "" {
		return canonicalRegion, "", nil
	}
	canonicalCity, ok := s.cityIndex[canonicalRegion][foldLocation(city)]
	if !ok {
		return "", "", ErrInvalidLocation
	}
	return canonicalRegion, canonicalCity, nil
}

// NormalizeCity 校验单个城市名（用于活动定向城市）
func (s *LocationService) NormalizeCity(city string) (string, bool) {
	folded := foldLocation(city)
	for _, department := range s.departments {
		if canonical, ok := s.cityIndex[department.Name][folded]; ok {
			return canonical, true
		}
	}
	return "", false
}

func foldLocation(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(raw))
	if err != nil {
		folded = strings.TrimSpace(raw)
	}
	return strings.ToLower(folded)
}
