package screen

const vertex = `
#version 420

in  vec2 vertPos;
in  vec2 vertTexCoord;
out vec2 fragTexCoord;

void main() {
    fragTexCoord = vertTexCoord;
    gl_Position  = vec4(vertPos, 0, 1);
}
`

const fragment = `
#version 420

uniform vec4 fg;
uniform vec4 bg;

layout (binding = 0) uniform sampler2D pixels;

in  vec2 fragTexCoord;
out vec4 outputColor;

void main() {
    // Lit pixels are stored as 0xff in the red channel.
    float lit = step(0.5, texture(pixels, fragTexCoord).r);
    outputColor = mix(bg, fg, lit);
}
`
