package module

// Required and optional guest-exported function names every module
// must (or may) provide, matching marine-rs-sdk's generated glue
// exactly.
const (
	// AllocateFuncName is required: the host calls it to request size
	// bytes of guest linear memory for a lowered argument or result.
	AllocateFuncName = "allocate"
	// DeallocateFuncName is optional: when present and
	// Config.FreeArgumentsAfterCall is set, the host calls it after a
	// Call returns to release the memory it allocated for lowered
	// arguments.
	DeallocateFuncName = "deallocate"
	// SetResultPtrFuncName and SetResultSizeFuncName are required: the
	// host calls them to stash a lowered host-import result's guest
	// offset/size, since a compound return value contributes no Wasm
	// result values of its own.
	SetResultPtrFuncName  = "set_result_ptr"
	SetResultSizeFuncName = "set_result_size"
	// GetResultPtrFuncName and GetResultSizeFuncName are required only
	// if the module exports a function whose own return type
	// materializes in memory: the guest stashes the offset/size of its
	// exported function's compound return value here for the host to
	// retrieve after the call returns.
	GetResultPtrFuncName  = "get_result_ptr"
	GetResultSizeFuncName = "get_result_size"
)
