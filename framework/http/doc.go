// Package http serves the read-only container inspector and the small
// request and response helpers it is built on.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//	page  := req.Query("lifetime", "singleton")
//	name  := req.RouteParam("name")   // requires the chi based router
//	token := req.BearerToken()
//
// # Response
//
//	res := gohttp.NewResponse(w)
//	res.Success(infos)                 // 200 {"data": infos}
//	res.NotFound("No binding level.")  // 404 {"message": ...}
//	res.Unauthorized()                 // 401
//
// # Inspector
//
//	in := gohttp.NewInspector(c, recorder, cfg.App.Key)
//	in.Routes(router)
package http
