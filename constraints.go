package goinject

import "reflect"

func namedConstraint(name string) Constraint {
	return func(request *Request) bool {
		return request != nil && request.target != nil && request.target.MatchesNamedTag(name)
	}
}

func taggedConstraint(key any, value any) Constraint {
	return func(request *Request) bool {
		return request != nil && request.target != nil && request.target.MatchesTag(key, value)
	}
}

// typeConstraint matches requests for serviceIdentifier, or requests
// resolved by a class that is, or produces, serviceIdentifier.
func typeConstraint(serviceIdentifier ServiceIdentifier) Constraint {
	return func(request *Request) bool {
		if request == nil {
			return false
		}
		if request.serviceIdentifier == serviceIdentifier {
			return true
		}
		for _, binding := range request.bindings {
			if binding.class == nil {
				continue
			}
			if binding.class == serviceIdentifier {
				return true
			}
			if t, ok := serviceIdentifier.(reflect.Type); ok && binding.class.producedType() == t {
				return true
			}
		}
		return false
	}
}

// anyAncestor walks the parents of request, not request itself.
func anyAncestor(request *Request, constraint Constraint) bool {
	if request == nil {
		return false
	}
	for ancestor := request.ParentRequest(); ancestor != nil; ancestor = ancestor.ParentRequest() {
		if constraint(ancestor) {
			return true
		}
	}
	return false
}
