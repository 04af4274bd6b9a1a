package utils

import (
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// GenerateEmailLocalPart 用姓名的拼音加随机数字生成邮箱前缀，例如 "zhangwei07"
func GenerateEmailLocalPart(chineseName string) string {
	local := ""
	for _, syllable := range pinyin.LazyConvert(chineseName, nil) {
		local += syllable
	}

	digitsLength := rand.Intn(2) + 2
	for i := 0; i < digitsLength; i++ {
		local += string(digits[rand.Intn(len(digits))])
	}

	return local
}

func GenerateRandomEmployee(companyID int64, emailDomain string) *domain.Employee {
	fullName := GenerateRandomChineseName()

	return &domain.Employee{
		CompanyID: companyID,
		FullName:  fullName,
		Email:     GenerateEmailLocalPart(fullName) + "@" + emailDomain,
	}
}
