package language

import (
	"sort"
	"strings"

	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
)

// Language is the closed set of languages a battle can be fought in.
type Language string

const (
	JavaScript Language = "javascript"
	Python     Language = "python"
	Java       Language = "java"
	CPP        Language = "cpp"
)

// All lists every supported language. Tables below must have an entry for each.
var All = []Language{JavaScript, Python, Java, CPP}

var displayNames = map[Language]string{
	JavaScript: "JavaScript",
	Python:     "Python",
	Java:       "Java",
	CPP:        "C++",
}

var starterCode = map[Language]string{
	JavaScript: "function solution(nums, target) {\n  // Write your code here\n}\n",
	Python:     "def solution(nums, target):\n    # Write your code here\n    pass\n",
	Java:       "class Solution {\n    public int[] solution(int[] nums, int target) {\n        // Write your code here\n        return new int[0];\n    }\n}\n",
	CPP:        "#include <vector>\nusing namespace std;\n\nvector<int> solution(vector<int>& nums, int target) {\n    // Write your code here\n    return {};\n}\n",
}

// Languages whose submissions can be executed by the sandbox harness.
// The rest are only estimated by the advisor.
var locallyExecutable = map[Language]bool{
	JavaScript: true,
	Python:     true,
	Java:       false,
	CPP:        false,
}

var aliases = map[string]Language{
	"js":   JavaScript,
	"node": JavaScript,
	"py":   Python,
	"c++":  CPP,
}

type Info struct {
	ID          Language `json:"id"`
	Name        string   `json:"name"`
	StarterCode string   `json:"starterCode"`
	Executable  bool     `json:"executable"`
}

func Parse(s string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", apperrors.Validation("language is required")
	}
	if l, ok := aliases[key]; ok {
		return l, nil
	}
	l := Language(key)
	if _, ok := displayNames[l]; !ok {
		return "", apperrors.Validation("unsupported language: " + s)
	}
	return l, nil
}

func (l Language) String() string {
	return string(l)
}

func (l Language) Name() string {
	return displayNames[l]
}

func (l Language) StarterCode() string {
	return starterCode[l]
}

func (l Language) Executable() bool {
	return locallyExecutable[l]
}

func (l Language) Info() Info {
	return Info{ID: l, Name: l.Name(), StarterCode: l.StarterCode(), Executable: l.Executable()}
}

func Supported() []Info {
	infos := make([]Info, 0, len(All))
	for _, l := range All {
		infos = append(infos, l.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
