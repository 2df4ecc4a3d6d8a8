package seccomp

// Action 是过滤器命中规则后的动作
type Action uint32

const (
	ActionInvalid Action = iota
	ActionAllow
	// ActionKill 杀死整个进程（SECCOMP_RET_KILL_PROCESS）
	ActionKill
)

func (a Action) String() string {
	switch a {
	case ActionAllow:
		return "allow"
	case ActionKill:
		return "kill"
	default:
		return "invalid"
	}
}
