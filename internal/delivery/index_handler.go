package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const indexPageContent = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Warehouse Service API</title>
    <style>
        body { font-family: Helvetica, Arial, sans-serif; line-height: 1.6; padding: 20px; background-color: #f9f9f9; color: #333; }
        h1, h2 { border-bottom: 1px solid #ccc; padding-bottom: 5px; }
        ul { list-style: none; padding-left: 0; }
        li { margin-bottom: 12px; background-color: #fff; padding: 10px; border: 1px solid #eee; border-radius: 4px; }
        code { background-color: #e8e8e8; padding: 3px 6px; border-radius: 3px; font-family: Consolas, Monaco, monospace; }
        .method { font-weight: bold; display: inline-block; width: 60px; }
        .get { color: #61affe; } .post { color: #49cc90; } .put { color: #fca130; } .delete { color: #f93e3e; }
    </style>
</head>
<body>
    <h1>Warehouse Service</h1>

    <h2>Overview</h2>
    <ul>
        <li><span class="method get">GET</span> <code><a href="/inventory">/inventory</a></code> - Categories, products, totals and the low-stock count.</li>
        <li><span class="method get">GET</span> <code><a href="/health">/health</a></code> - Storage backend reachability.</li>
    </ul>

    <h2>Categories</h2>
    <ul>
        <li><span class="method post">POST</span> <code>/categories</code> - Body: <code>{"name": "string", "description": "string"}</code></li>
        <li><span class="method get">GET</span> <code><a href="/categories">/categories</a></code> - List categories.</li>
        <li><span class="method get">GET</span> <code>/categories/{id}</code> - One category.</li>
        <li><span class="method delete">DELETE</span> <code>/categories/{id}</code> - Refused while products still reference it.</li>
    </ul>

    <h2>Products</h2>
    <ul>
        <li><span class="method post">POST</span> <code>/products</code> - Body: <code>{"name": "string", "category_id": int, "quantity": int, "unit_price": "12.50"}</code></li>
        <li><span class="method get">GET</span> <code><a href="/products">/products</a></code> - Optional <code>category_id</code> and <code>q</code> (name contains).</li>
        <li><span class="method get">GET</span> <code>/products/{id}</code> - One product.</li>
        <li><span class="method put">PUT</span> <code>/products/{id}</code> - Replace all fields; same body as create.</li>
        <li><span class="method delete">DELETE</span> <code>/products/{id}?confirmed=true</code> - Delete a product.</li>
    </ul>

    <h2>Stock</h2>
    <ul>
        <li><span class="method post">POST</span> <code>/products/{id}/issue</code> - Body: <code>{"amount": int, "receipt": bool}</code>. Add <code>?format=pdf</code> to download the receipt.</li>
        <li><span class="method post">POST</span> <code>/products/{id}/receive</code> - Body: <code>{"amount": int}</code></li>
    </ul>
</body>
</html>
`

type IndexHandler struct{}

func NewIndexHandler() *IndexHandler {
	return &IndexHandler{}
}

func (h *IndexHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/", h.ServeIndex)
}

func (h *IndexHandler) ServeIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPageContent))
}
