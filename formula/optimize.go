package formula

import "github.com/smpl-xyz/go-smpl/operation"

// OperationsVar is the reserved environment variable that carries the
// edit operations of an operations slot.
const OperationsVar = "_v"

// OperationsSlot builds the conjunction attaching an operation list to
// an anchorable atom.
func OperationsSlot(ops []operation.Operation) Formula {
	return ExistsVar{Var: OperationsVar, F: SetEnv{Var: OperationsVar, Value: ops}}
}

// Optimize removes empty operations slots: any conjunction whose right
// side injects an empty operation list reduces to its left side. The
// rewrite is applied bottom-up and is idempotent.
func Optimize(f Formula) Formula {
	switch x := f.(type) {
	case Not:
		return Not{F: Optimize(x.F)}
	case And:
		lhs := Optimize(x.Lhs)
		rhs := Optimize(x.Rhs)
		if isEmptySlot(rhs) {
			return lhs
		}
		if isEmptySlot(lhs) {
			return rhs
		}
		return And{Lhs: lhs, Rhs: rhs}
	case Or:
		return Or{Lhs: Optimize(x.Lhs), Rhs: Optimize(x.Rhs)}
	case AllNext:
		return AllNext{F: Optimize(x.F)}
	case ExistsNext:
		return ExistsNext{F: Optimize(x.F)}
	case AllUntil:
		return AllUntil{Lhs: Optimize(x.Lhs), Rhs: Optimize(x.Rhs)}
	case ExistsUntil:
		return ExistsUntil{Lhs: Optimize(x.Lhs), Rhs: Optimize(x.Rhs)}
	case ExistsVar:
		return ExistsVar{Var: x.Var, F: Optimize(x.F)}
	default:
		return f
	}
}

func isEmptySlot(f Formula) bool {
	ev, ok := f.(ExistsVar)
	if !ok || ev.Var != OperationsVar {
		return false
	}
	se, ok := ev.F.(SetEnv)
	if !ok || se.Var != OperationsVar {
		return false
	}
	ops, ok := se.Value.([]operation.Operation)
	return ok && len(ops) == 0
}
